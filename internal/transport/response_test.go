package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "success", FirstLine("\n\n  success  \nPHPSESSID\nabc"))
	assert.Equal(t, "progress", FirstLine("\ufeffprogress\r\nImported 10 of 20"))
	assert.Equal(t, "", FirstLine("  \n \n"))
}

func TestHasPrefixFold(t *testing.T) {
	assert.True(t, HasPrefixFold("SUCCESS", "success"))
	assert.True(t, HasPrefixFold("Success: done", "success"))
	assert.False(t, HasPrefixFold("succ", "success"))
	assert.False(t, HasPrefixFold("failure", "success"))
}

func TestParseSessionID(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bitrix reply", "success\nPHPSESSID\nq1w2e3\nsessid=0f9a8b7c\ntimestamp=1700000000", "0f9a8b7c"},
		{"crlf", "success\r\nsessid=abc123\r\n", "abc123"},
		{"missing", "success\nPHPSESSID\nq1w2e3", ""},
		{"empty value", "success\nsessid=\n", ""},
		{"first non-empty wins", "success\nsessid=\nsessid=second", "second"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSessionID(tt.body))
		})
	}
}

func TestParseFileLimit(t *testing.T) {
	assert.Equal(t, int64(104857600), ParseFileLimit("zip=yes\nfile_limit=104857600\n"))
	assert.Equal(t, int64(1024), ParseFileLimit("ZIP=NO\nFILE_LIMIT=1024"))
	assert.Equal(t, int64(0), ParseFileLimit("zip=yes"))
	assert.Equal(t, int64(0), ParseFileLimit("file_limit=abc"))
	assert.Equal(t, int64(0), ParseFileLimit("file_limit=99999999999999999999999"))
}

func TestResponseHelpers(t *testing.T) {
	var nilResp *Response
	assert.Equal(t, "", nilResp.Text())
	assert.Equal(t, "", nilResp.FirstLine())

	r := &Response{Method: "GET", URL: "http://x/?mode=init", StatusCode: 200, Body: "  success\nfile_limit=10\n"}
	assert.Equal(t, "success\nfile_limit=10", r.Text())
	assert.Equal(t, "success", r.FirstLine())
	assert.Equal(t, "GET http://x/?mode=init", r.RequestLine())
}

package transport

// Mode is the value of the "mode" query parameter selecting a protocol phase
type Mode string

const (
	ModeCheckAuth Mode = "checkauth"
	ModeInit      Mode = "init"
	ModeFile      Mode = "file"
	ModeImport    Mode = "import"
)

// Response status words, matched case-insensitively against the first line of a reply
const (
	StatusSuccess  = "success"
	StatusFailure  = "failure"
	StatusProgress = "progress"
)

// Response is a raw reply from the exchange endpoint
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// Text returns the body without surrounding whitespace
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return trimText(r.Body)
}

// FirstLine returns the first non-empty line of the body
func (r *Response) FirstLine() string {
	if r == nil {
		return ""
	}
	return FirstLine(r.Body)
}

// RequestLine renders the request the way it is shown in diagnostics, e.g. "GET https://..."
func (r *Response) RequestLine() string {
	if r == nil {
		return ""
	}
	return r.Method + " " + r.URL
}

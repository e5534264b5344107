package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const Version = "2.0"

// Standard JSON-RPC 2.0 error codes plus the codes beerus adds in the
// implementation-defined server range.
const (
	CodeParseError          = -32700
	CodeInvalidRequest      = -32600
	CodeMethodNotFound      = -32601
	CodeInvalidParams       = -32602
	CodeInternalError       = -32603
	CodeUpstreamUnavailable = -32001
)

var null = json.RawMessage("null")

//----------------------------------------
// REQUEST

// Request is a JSON-RPC 2.0 request object. ID holds the raw id token so it
// can be echoed back byte-for-byte; a nil ID marks a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewRequest builds a request with an integer id and marshalled params.
// Params that are already raw JSON are used as is.
func NewRequest(id uint64, method string, params interface{}) (Request, error) {
	req := Request{
		JSONRPC: Version,
		ID:      json.RawMessage(fmt.Sprintf("%d", id)),
		Method:  method,
	}
	switch p := params.(type) {
	case nil:
	case json.RawMessage:
		req.Params = p
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return Request{}, fmt.Errorf("marshal params: %w", err)
		}
		req.Params = data
	}
	return req, nil
}

// IsNotification reports whether the request carries no id member.
func (req Request) IsNotification() bool {
	return len(req.ID) == 0
}

// Validate checks the envelope fields. Params shape is left to the method.
func (req Request) Validate() error {
	if req.JSONRPC != Version {
		return fmt.Errorf("unsupported jsonrpc version %q", req.JSONRPC)
	}
	if req.Method == "" {
		return errors.New("missing method")
	}
	if !req.IsNotification() {
		if err := validateID(req.ID); err != nil {
			return err
		}
	}
	if len(req.Params) != 0 {
		p := bytes.TrimSpace(req.Params)
		if !bytes.HasPrefix(p, []byte("[")) && !bytes.HasPrefix(p, []byte("{")) && !bytes.Equal(p, null) {
			return errors.New("params must be an object or an array")
		}
	}
	return nil
}

func (req Request) String() string {
	return fmt.Sprintf("Request{%s %s/%s}", req.ID, req.Method, req.Params)
}

// validateID accepts the id forms allowed by JSON-RPC 2.0: string, number
// or null.
func validateID(id json.RawMessage) error {
	var v interface{}
	if err := json.Unmarshal(id, &v); err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	switch v.(type) {
	case nil, string, float64:
		return nil
	default:
		return fmt.Errorf("id (%s) is of unsupported type %T", id, v)
	}
}

// MakeResponse returns a success response echoing req's id.
func (req Request) MakeResponse(result json.RawMessage) Response {
	if len(result) == 0 {
		result = null
	}
	return Response{JSONRPC: Version, ID: req.responseID(), Result: result}
}

// MakeError returns an error response echoing req's id.
func (req Request) MakeError(err *Error) Response {
	return Response{JSONRPC: Version, ID: req.responseID(), Error: err}
}

// MakeInvalid answers a request that failed Validate. The id is echoed when
// it could be read, otherwise it is null.
func (req Request) MakeInvalid(err error) Response {
	if req.IsNotification() || validateID(req.ID) != nil {
		return ErrorResponse(InvalidRequestError(err))
	}
	return req.MakeError(InvalidRequestError(err))
}

func (req Request) responseID() json.RawMessage {
	if len(req.ID) == 0 {
		return null
	}
	return req.ID
}

// ParseRequests parses a single request or a batch. The bool result
// reports whether the payload was a batch.
// Valid JSON that is not a request object yields a zero Request, which
// fails Validate.
func ParseRequests(data []byte) ([]Request, bool, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		return nil, false, errors.New("invalid json")
	}
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, true, err
		}
		reqs := make([]Request, len(raws))
		for i, raw := range raws {
			// a malformed element is reported per element, keep the zero value
			_ = json.Unmarshal(raw, &reqs[i])
		}
		return reqs, true, nil
	}

	var req Request
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return []Request{{}}, false, nil
	}
	return []Request{req}, false, nil
}

//----------------------------------------
// RESPONSE

type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (err *Error) Error() string {
	const baseFormat = "RPC error %d - %s"
	if len(err.Data) != 0 {
		return fmt.Sprintf(baseFormat+": %s", err.Code, err.Message, err.Data)
	}
	return fmt.Sprintf(baseFormat, err.Code, err.Message)
}

// NewError builds an error object; data, when non-empty, is attached as a
// JSON string.
func NewError(code int, msg string, data string) *Error {
	e := &Error{Code: code, Message: msg}
	if data != "" {
		e.Data, _ = json.Marshal(data)
	}
	return e
}

func ParseError(err error) *Error {
	return NewError(CodeParseError, "Parse error", err.Error())
}

func InvalidRequestError(err error) *Error {
	return NewError(CodeInvalidRequest, "Invalid Request", err.Error())
}

func MethodNotFoundError(method string) *Error {
	return NewError(CodeMethodNotFound, "Method not found", method)
}

func InvalidParamsError(err error) *Error {
	return NewError(CodeInvalidParams, "Invalid params", err.Error())
}

func InternalError() *Error {
	return NewError(CodeInternalError, "Internal error", "")
}

func UpstreamUnavailableError() *Error {
	return NewError(CodeUpstreamUnavailable, "Upstream unavailable", "")
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// ErrorResponse builds a response for a request whose id could not be
// determined; per JSON-RPC 2.0 the id is null.
func ErrorResponse(err *Error) Response {
	return Response{JSONRPC: Version, ID: null, Error: err}
}

func (resp Response) String() string {
	if resp.Error == nil {
		return fmt.Sprintf("Response{%s %s}", resp.ID, resp.Result)
	}
	return fmt.Sprintf("Response{%s %v}", resp.ID, resp.Error)
}

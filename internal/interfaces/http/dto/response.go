package dto

// Response is the envelope every endpoint answers with
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Meta    *Meta      `json:"meta,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	Field     string             `json:"field,omitempty"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail describes one rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag,omitempty"`
}

// Meta represents pagination metadata
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMeta creates a success response with pagination meta
func NewSuccessResponseWithMeta(data any, total int64, page, pageSize int) Response {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Response{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:      total,
			Page:       page,
			PageSize:   pageSize,
			TotalPages: totalPages,
		},
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	}
}

// NewErrorResponseWithRequestID creates an error response carrying the request id
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	r := NewErrorResponse(code, message)
	r.Error.RequestID = requestID
	return r
}

// NewFieldErrorResponse creates an error response tied to a single field
func NewFieldErrorResponse(code, message, field, requestID string) Response {
	r := NewErrorResponseWithRequestID(code, message, requestID)
	r.Error.Field = field
	return r
}

// NewValidationErrorResponse creates a 400 body listing every rejected field.
// The first detail is promoted to Error.Field.
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	r := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	r.Error.Details = details
	if len(details) > 0 {
		r.Error.Field = details[0].Field
	}
	return r
}

package models

// ChangeMethodRequest is the body of POST .../verification/method.
type ChangeMethodRequest struct {
	Method string `json:"method"`
}

// RecordResponse is the API shape of a verification record plus the rendered
// setup instructions for its current method.
type RecordResponse struct {
	Record       *VerificationRecord `json:"record"`
	Instructions string              `json:"instructions"`
	Methods      []Method            `json:"methods"`
}

// VerifyResponse is the body returned by POST .../verification/verify.
type VerifyResponse struct {
	IsVerified bool                `json:"is_verified"`
	Method     Method              `json:"method"`
	Reason     string              `json:"reason,omitempty"`
	Record     *VerificationRecord `json:"record"`
}

// CheckResponse is the body of the diagnostic check endpoint. It reports a
// check outcome without mutating the stored record.
type CheckResponse struct {
	Method  Method `json:"method"`
	Matched bool   `json:"matched"`
	Reason  string `json:"reason,omitempty"`
}

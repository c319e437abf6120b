package dto

// ========== Link-claim DTOs ==========

// ClaimStartRequest is the browser-submitted claim payload.
type ClaimStartRequest struct {
	ShareCode      string `json:"shareCode"`
	Phone          string `json:"phone"`
	TurnstileToken string `json:"turnstileToken"`
}

// ClaimStartResponse is the public success contract, for both fresh claims
// and already-claimed resubmissions.
type ClaimStartResponse struct {
	ClaimID     string `json:"claimId"`
	MaskedPhone string `json:"maskedPhone"`
	Status      string `json:"status"` // PENDING, ALREADY_CLAIMED, or backend-defined
	ExpiresAt   string `json:"expiresAt"`
}

package models

import "time"

// RegistrationResponse is the applicant's view. Token is present only in the
// creation response and Password only in the account creation response.
type RegistrationResponse struct {
	RID          string       `json:"rid"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	Token        string       `json:"token,omitempty"`
	Password     string       `json:"password,omitempty"`
	Status       Status       `json:"status"`
	MatrixStatus MatrixStatus `json:"matrix_status"`
	Creation     time.Time    `json:"creation"`
	Modification time.Time    `json:"modification"`
}

// ManagerResponse hides everything personal or secret.
type ManagerResponse struct {
	RID          string       `json:"rid"`
	Status       Status       `json:"status"`
	MatrixStatus MatrixStatus `json:"matrix_status"`
	Creation     time.Time    `json:"creation"`
	Modification time.Time    `json:"modification"`
}

// ToApplicantResponse never copies stored tokens, which are digests.
func ToApplicantResponse(r *Registration) *RegistrationResponse {
	return &RegistrationResponse{
		RID:          r.RID,
		Username:     r.Username,
		Email:        r.Email,
		Password:     r.Password,
		Status:       r.Status,
		MatrixStatus: r.MatrixStatus,
		Creation:     r.Creation,
		Modification: r.Modification,
	}
}

func ToManagerResponse(r *Registration) *ManagerResponse {
	return &ManagerResponse{
		RID:          r.RID,
		Status:       r.Status,
		MatrixStatus: r.MatrixStatus,
		Creation:     r.Creation,
		Modification: r.Modification,
	}
}

// Package dto provides data transfer objects for the signature HTTP surface.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/clinsign/clinsign/internal/validation"
)

// Dispatched action names.
const (
	ActionCheckCertificate = "check-certificate"
	ActionAuthorize        = "authorize"
	ActionResume           = "resume"
	ActionSign             = "sign"
	ActionSignMock         = "sign-mock"
)

// SignActionRequest is the POST body of the action-dispatched signature
// endpoint. Action selects between "sign" and "sign-mock"; the remaining
// fields are validated per action.
type SignActionRequest struct {
	Action            string `json:"action"`
	AuthorizationCode string `json:"authorizationCode"`
	PrescriptionID    string `json:"prescriptionId"`
	PdfBase64         string `json:"pdfBase64"`
}

// Validate checks the request fields required by the selected action.
func (r *SignActionRequest) Validate() error {
	switch r.Action {
	case ActionSign:
		return validation.ValidateStruct(r,
			validation.Field(&r.AuthorizationCode,
				validation.Required,
				customValidation.NotBlank,
			),
			validation.Field(&r.PrescriptionID,
				validation.Required,
				customValidation.NotBlank,
			),
			validation.Field(&r.PdfBase64,
				validation.Required,
				customValidation.Base64,
			),
		)
	case ActionSignMock:
		return validation.ValidateStruct(r,
			validation.Field(&r.PrescriptionID,
				validation.Required,
				customValidation.NotBlank,
			),
		)
	default:
		return validation.Errors{
			"action": validation.NewError("validation_action", "must be sign or sign-mock"),
		}
	}
}

package dto

// ConfirmUploadRequest selects staged candidates by index
type ConfirmUploadRequest struct {
	Selected []int `json:"selected" binding:"required,min=1,dive,min=0"`
}

package dto

// CreateBackupRequest triggers a backup; name is generated when empty
type CreateBackupRequest struct {
	Type string `json:"type" validate:"required,oneof=database files full"`
	Name string `json:"name,omitempty" validate:"omitempty,max=100,excludesall=/\\"`
}

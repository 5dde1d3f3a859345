package contact

import (
	"crm-gateway/internal/common/logger"
	"crm-gateway/internal/crm/remote"
)

type FindInput struct {
	FullName string `json:"full_name"`
}

type VerifyInput struct {
	FullName string `json:"full_name"`
	DOB      string `json:"dob"`
	Phone    string `json:"phone,omitempty"`
}

type ServiceDependencies struct {
	Remote remote.Remote
	Logger logger.Logger
}

package customerservice

import (
	"crm-gateway/internal/common/logger"
	"crm-gateway/internal/crm/remote"
)

type ServiceDependencies struct {
	Remote remote.Remote
	Logger logger.Logger
}

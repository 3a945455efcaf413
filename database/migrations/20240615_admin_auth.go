package migrations

import (
	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/pkg/migration"
)

func init() {
	migration.Register("20240615000000_create_admin_users_table", table(&models.AdminUser{}))
	migration.Register("20240615000001_create_verification_tokens_table", table(&models.VerificationToken{}))
}

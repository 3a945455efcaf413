package migrations

import (
	"gorm.io/gorm"

	"github.com/rainbowartistery/atelier/app/models"
	"github.com/rainbowartistery/atelier/pkg/migration"
)

func init() {
	migration.Register("20240601000000_create_products_table", table(&models.Product{}))
	migration.Register("20240601000001_create_testimonials_table", table(&models.Testimonial{}))
	migration.Register("20240601000002_create_announcements_table", table(&models.Announcement{}))
	migration.Register("20240601000003_create_enquiries_table", table(&models.Enquiry{}))
}

// tableMigration creates one model's table on Up and drops it on Down.
type tableMigration struct {
	model any
}

func table(model any) migration.Migration { return tableMigration{model: model} }

func (m tableMigration) Up(db *gorm.DB) error {
	return db.AutoMigrate(m.model)
}

func (m tableMigration) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(m.model)
}

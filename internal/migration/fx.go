package migration

import (
	"github.com/medloop/aushadhi/internal/config"
	customerdomain "github.com/medloop/aushadhi/internal/customer/domain"
	inventorydomain "github.com/medloop/aushadhi/internal/inventory/domain"
	invoicedomain "github.com/medloop/aushadhi/internal/invoice/domain"
	paymentdomain "github.com/medloop/aushadhi/internal/payment/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			return autoMigrate(conn)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)

// autoMigrate covers the non-postgres dialects, where the SQL migration
// driver is not wired. Schema definitions come from the model structs.
func autoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&customerdomain.Customer{},
		&customerdomain.CreditLedgerEntry{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLineItem{},
		&invoicedomain.InvoiceTaxLine{},
		&invoicedomain.InvoiceSequence{},
		&paymentdomain.Payment{},
		&inventorydomain.RestockRequest{},
	)
}

package database

import (
	"context"
	"database/sql"
)

// Migrate creates the schema when it does not exist yet.  The statements
// are idempotent so Migrate can run unconditionally at every boot.
//
// The stock quantity and the reservation status are the only shared
// mutable state in the system.  Both are mutated exclusively through
// conditional UPDATEs issued by the repository layer; the CHECK
// constraint on available_stock is a backstop, not the mechanism.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			name            VARCHAR(255)    NOT NULL,
			price           DECIMAL(10,2)   NOT NULL DEFAULT 0,
			available_stock INT             NOT NULL DEFAULT 0,
			created_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			CONSTRAINT chk_products_stock CHECK (available_stock >= 0)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS reservations (
			id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			product_id BIGINT UNSIGNED NOT NULL,
			quantity   INT             NOT NULL,
			status     ENUM('ACTIVE','COMPLETED','EXPIRED') NOT NULL DEFAULT 'ACTIVE',
			created_at DATETIME(3)     NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
			expires_at DATETIME(3)     NOT NULL,
			PRIMARY KEY (id),
			KEY idx_reservations_status_expires (status, expires_at),
			KEY idx_reservations_created (created_at),
			CONSTRAINT fk_reservations_product FOREIGN KEY (product_id) REFERENCES products (id)
		) ENGINE=InnoDB`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

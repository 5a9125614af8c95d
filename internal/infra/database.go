package infra

import (
	"fmt"

	"heladeria/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for every model, then applies the idempotent SQL patches GORM cannot
// express (partial unique indexes).
func NewDatabase(dsn string) (*gorm.DB, error) {
	// Constraint violations reach the repositories as *pgconn.PgError
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates all tables and applies schema patches.
// Also used by the integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Categoria{},
		&model.Sabor{},
		&model.Producto{},
		&model.Pedido{},
		&model.DetallePedido{},
		&model.Caja{},
		&model.MovimientoCaja{},
		&model.VentaPOS{},
		&model.VentaPOSItem{},
		&model.Usuario{},
		&model.TiendaConfig{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL. The VENTA-per-sale unique index is
// not here: it is created by the ledger dedupe repair once existing duplicates
// are gone.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// at most one open caja
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_caja_abierta
		    ON cajas (estado)
		    WHERE estado = 'ABIERTA'`,
		// geocoding sweep
		`CREATE INDEX IF NOT EXISTS idx_pedidos_geocodificacion_pendiente
		    ON pedidos (fecha_pedido)
		    WHERE latitud IS NOT NULL AND direccion_geocodificada IS NULL`,
		// sign of monto per tipo; only AJUSTE may be either sign
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_movimientos_monto_signo') THEN
		    ALTER TABLE movimientos_caja ADD CONSTRAINT chk_movimientos_monto_signo CHECK (
		      (tipo = 'VENTA' AND monto >= 0) OR
		      (tipo = 'INGRESO' AND monto > 0) OR
		      (tipo IN ('EGRESO', 'RETIRO') AND monto < 0) OR
		      (tipo = 'AJUSTE' AND monto <> 0)
		    );
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}

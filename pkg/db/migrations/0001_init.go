package migrations

import (
	"context"
	"database/sql"
	"time"

	"github.com/pressly/goose/v3"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func init() {
	goose.AddMigrationContext(upInit, downInit)
}

type Equipment struct {
	ID          string     `gorm:"type:text;primaryKey"`
	Category    string     `gorm:"type:text;not null"`
	Location    string     `gorm:"type:text"`
	InstallDate *time.Time `gorm:"type:date"`
	Status      string     `gorm:"type:text;not null;default:'active'"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

type Sensor struct {
	ID        string    `gorm:"type:text;primaryKey"`
	Category  string    `gorm:"type:text;not null"`
	Unit      string    `gorm:"type:text"`
	RangeMin  float64   `gorm:"not null"`
	RangeMax  float64   `gorm:"not null"`
	Precision float64   `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

type Measurement struct {
	ID          int64             `gorm:"type:bigserial;primaryKey"`
	SensorID    string            `gorm:"type:text;not null;index"`
	EquipmentID string            `gorm:"type:text;not null;index:idx_measurements_equipment_ts,priority:1"`
	Timestamp   time.Time         `gorm:"type:timestamptz;not null;index:idx_measurements_equipment_ts,priority:2"`
	Temperature *float64
	Pressure    *float64
	Vibration   *float64
	Humidity    *float64
	VibrationX  *float64
	VibrationY  *float64
	VibrationZ  *float64
	GyroX       *float64
	GyroY       *float64
	GyroZ       *float64
	FaultFlag   bool              `gorm:"not null;default:false"`
	Source      string            `gorm:"type:text;not null;default:'synthetic-generator'"`
	Raw         datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt   time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	Equipment   Equipment         `gorm:"foreignKey:EquipmentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Sensor      Sensor            `gorm:"foreignKey:SensorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// Channel invariants and the read views consumed by the dashboard layer.
// Violating inserts are rejected by the database, never clamped.
var initStatements = []string{
	`ALTER TABLE measurements ADD CONSTRAINT chk_measurements_humidity
		CHECK (humidity IS NULL OR (humidity >= 0 AND humidity <= 100))`,
	`ALTER TABLE measurements ADD CONSTRAINT chk_measurements_pressure
		CHECK (pressure IS NULL OR pressure >= 0)`,
	`ALTER TABLE measurements ADD CONSTRAINT chk_measurements_temperature
		CHECK (temperature IS NULL OR (temperature >= -50 AND temperature <= 200))`,
	`CREATE VIEW equipment_summary AS
		SELECT
			equipment_id,
			COUNT(*)               AS measurement_count,
			AVG(temperature)       AS temperature_mean,
			MIN(temperature)       AS temperature_min,
			MAX(temperature)       AS temperature_max,
			AVG(pressure)          AS pressure_mean,
			AVG(humidity)          AS humidity_mean,
			COUNT(*) FILTER (WHERE fault_flag) AS fault_count,
			MAX(timestamp)         AS latest_timestamp
		FROM measurements
		GROUP BY equipment_id`,
	`CREATE VIEW recent_measurements AS
		SELECT *
		FROM measurements
		WHERE timestamp >= now() - INTERVAL '24 hours'`,
}

var dropStatements = []string{
	`DROP VIEW IF EXISTS recent_measurements`,
	`DROP VIEW IF EXISTS equipment_summary`,
}

func upInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := gormDB.WithContext(ctx).AutoMigrate(
		&Equipment{},
		&Sensor{},
		&Measurement{},
	); err != nil {
		return err
	}

	m := gormDB.WithContext(ctx).Migrator()
	if err := m.CreateConstraint(&Measurement{}, "Equipment"); err != nil {
		return err
	}
	if err := m.CreateConstraint(&Measurement{}, "Sensor"); err != nil {
		return err
	}

	for _, stmt := range initStatements {
		if err := gormDB.WithContext(ctx).Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}

func downInit(ctx context.Context, tx *sql.Tx) error {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: tx, PreferSimpleProtocol: true}), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: false},
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	for _, stmt := range dropStatements {
		if err := gormDB.WithContext(ctx).Exec(stmt).Error; err != nil {
			return err
		}
	}

	return gormDB.WithContext(ctx).Migrator().DropTable(
		&Measurement{},
		&Sensor{},
		&Equipment{},
	)
}

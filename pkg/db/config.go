package db

type Config struct {
	Type            string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxIdleConn     int
	MaxOpenConn     int
	ConnMaxLifetime int
	ConnMaxIdleTime int

	// MetricsPort, when non-zero, starts the gorm prometheus plugin's HTTP
	// listener on that port exposing the default registry.
	MetricsPort uint32
}

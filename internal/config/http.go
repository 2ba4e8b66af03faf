package config

type HTTP struct {
	Port    uint32 `env:"HTTP_PORT" envDefault:"3000"`
	Swagger bool   `env:"HTTP_SWAGGER" envDefault:"true"`

	// AllowedOrigins may call the API with credentials.
	AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" envSeparator:"," envDefault:"https://www.fernandodesantiago.com,http://localhost:4200,http://localhost:4400"`
}

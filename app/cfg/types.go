package cfg

type Cfg struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Application configuration
	ProvidersDir      string
	VocabulariesFile  string
	MediaDir          string
	Port              string
	BaseUrl           string
	WorkerCount       int
	SchedulerInterval int
	APIAccessKey      string

	// Vendor HTTP settings
	HTTPTimeout int

	// Search provider endpoints
	PhotoAPIURL string
	PhotoAPIKey string
	VideoAPIURL string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}

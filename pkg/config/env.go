package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "FULFILLMENT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv            = "FULFILLMENT_APP_ENV"
	EnvPort              = "FULFILLMENT_APP_PORT"
	EnvDBDSN             = "FULFILLMENT_DB_DSN"
	EnvDBHost            = "FULFILLMENT_DB_HOST"
	EnvDBUser            = "FULFILLMENT_DB_USER"
	EnvDBName            = "FULFILLMENT_DB_NAME"
	EnvDBPassword        = "FULFILLMENT_DB_PASSWORD"
	EnvRedisURL          = "FULFILLMENT_REDIS_URL"
	EnvJWTSecret         = "FULFILLMENT_JWT_SECRET"
	EnvJWTIssuer         = "FULFILLMENT_JWT_ISSUER"
	EnvFulfillerVendorID = "FULFILLMENT_ROUTING_FULFILLER_VENDOR_ID"
	EnvNotifyTimeout     = "FULFILLMENT_ROUTING_NOTIFY_TIMEOUT"
	EnvGCPProjectID      = "FULFILLMENT_GCP_PROJECT_ID"
	EnvNotificationTopic = "FULFILLMENT_PUBSUB_NOTIFICATION_TOPIC"
	EnvUseSQLite         = "FULFILLMENT_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

package commands

// TelegramCommands contains all commands for the Telegram bot
const (
	// Main commands
	Start   = "/start"
	Gen     = "/gen"
	MyKey   = "/mykey"
	Status  = "/status"
	Premium = "/premium"
	Redeem  = "/redeem"
	Cancel  = "/cancel"

	// Menu buttons
	GenerateKey    = "🔑 Generate Key"
	MyKeys         = "📁 My Keys"
	AccountStatus  = "📊 Account Status"
	UpgradePremium = "💎 Upgrade Premium"
	RedeemCode     = "🎁 Redeem Code"

	// Administrator commands
	Admin         = "/admin"
	ServerStatus  = "/server_status"
	AdminUser     = "/admin_user"
	AddPremium    = "/add_premium"
	RemovePremium = "/remove_premium"
	Ban           = "/ban"
	Unban         = "/unban"
	CreateCode    = "/create_code"
	Maintenance   = "/maintenance"
)

// Callback data prefixes of inline buttons
const (
	CallbackServer   = "server"
	CallbackProtocol = "proto"
	CallbackUpgrade  = "upgrade_info"
)

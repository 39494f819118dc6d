package models

// Setting is a runtime flag changed from the bot, such as maintenance mode
type Setting struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value string `gorm:"type:text"`
}

// TableName returns the settings table name
func (Setting) TableName() string {
	return "settings"
}

// Known setting keys
const (
	SettingMaintenance = "maintenance"
)

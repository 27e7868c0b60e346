package constants

const (
	DefaultConfigPath1 = "/etc/saashub"
	DefaultConfigPath2 = "$HOME/.saashub"
)

package config

func Defaults() *Config {
	return &Config{
		General: GeneralConfig{
			LogLevel: "info",
		},
		Webhook: WebhookConfig{
			TimeoutSeconds: 30,
		},
		Client: ClientConfig{
			Args: []string{"serve"},
		},
	}
}

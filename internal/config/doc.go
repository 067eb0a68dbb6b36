// Package config loads deskhub's configuration file and environment overrides.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/deskhub/config.toml (default)
//  3. If the file doesn't exist, start from Default()
//  4. Empty or missing fields keep their defaults
//  5. DESKHUB_* environment variables override the result
//
// Call LoadDotEnv first to pull variables from a .env file. Variables already
// present in the environment win over the file.
//
// # TOML Format
//
//	user_id = "default_user"
//	fetch_limit = 50
//
//	[endpoints]
//	tasks = "https://hub.example.com/webhook/tasks"
//	notifications = "https://hub.example.com/webhook/notifications"
//	actions = "https://hub.example.com/webhook/actions"
//	conversations = "https://hub.example.com/webhook/conversations"
//	conversation_history = "https://hub.example.com/webhook/history"
//	task_update = "https://hub.example.com/webhook/task-update"
//	notification_update = "https://hub.example.com/webhook/notification-update"
//	chat_send = "https://hub.example.com/webhook/chat"
//
//	[storage]
//	backend = "file"        # file, sqlite, redis or memory
//	path = "~/.local/share/deskhub"
//	redis_url = "redis://localhost:6379/0"
//	namespace = "deskhub"
//
//	[logging]
//	level = "info"
//	format = "text"         # text or json
//	file = "~/.local/state/deskhub/deskhub.log"
//
//	[metrics]
//	listen = ""             # e.g. "127.0.0.1:9464"; empty disables
//
//	[http]
//	timeout = "30s"
//
// Endpoints may be left empty. A kind without an endpoint shows a
// configuration placeholder instead of failing startup.
//
// # Environment Overrides
//
//   - DESKHUB_<KIND>_URL for every endpoint (TASKS_URL, CHAT_SEND_URL, ...)
//   - DESKHUB_USER_ID
//   - DESKHUB_STORAGE_BACKEND, DESKHUB_REDIS_URL
//   - DESKHUB_LOG_LEVEL
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors and unparsable durations ("parse config: ...")
//   - Unknown storage backends or log formats
//
// Missing config files are NOT an error. deskhub starts with every kind
// showing a configuration placeholder until endpoints are set.
package config

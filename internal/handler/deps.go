package handler

import (
	"minichat/internal/app/chat"
	"minichat/internal/configs"
)

// AppDeps bundles the shared dependencies handlers need.
type AppDeps struct {
	Pool   *chat.UserPool
	Config *configs.AppConfig
}

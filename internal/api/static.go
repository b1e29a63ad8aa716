package api

import (
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

const indexFile = "index.html"

// SetupStatic serves the built frontend from dir. Unknown non-API GETs get index.html
// so client-side routes survive a reload. API paths and other methods get a JSON 404.
func SetupStatic(router *gin.Engine, log *slog.Logger, dir string) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		log.Warn("Static directory not found, frontend will not be served", slog.String("dir", dir))
		router.NoRoute(notFound)
		return
	}

	index := filepath.Join(dir, indexFile)

	router.NoRoute(func(c *gin.Context) {
		p := c.Request.URL.Path
		if (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) ||
			p == "/api" || strings.HasPrefix(p, "/api/") {
			notFound(c)
			return
		}

		// Clean against a rooted path so the result cannot climb out of dir.
		file := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+p)))
		if fi, statErr := os.Stat(file); statErr == nil && !fi.IsDir() {
			c.File(file)
			return
		}

		if _, statErr := os.Stat(index); statErr != nil {
			notFound(c)
			return
		}

		c.File(index)
	})
}

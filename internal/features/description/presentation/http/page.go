package http

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static/index.html
var staticFS embed.FS

const pageTitle = "ProductProse - AI Product Description Generator"

// PageTemplate parses the embedded single page.
func PageTemplate() (*template.Template, error) {
	return template.ParseFS(staticFS, "static/index.html")
}

// IndexHandler renders the page. With credErr set the page carries only the error.
func IndexHandler(credErr error) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := gin.H{"Title": pageTitle}
		if credErr != nil {
			data["CredentialsError"] = credErr.Error()
		}
		c.HTML(http.StatusOK, "index.html", data)
	}
}

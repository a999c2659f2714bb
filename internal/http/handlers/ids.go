package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type idRequest struct {
	ID string `json:"id"`
}

// resolveID picks the target id from the path, falling back to the "id" field
// of the JSON body. It writes a 400 and returns false when neither holds a UUID.
func resolveID(ctx *gin.Context, bodyID string) (string, bool) {
	pathID := ctx.Param("id")

	if pathID != "" && bodyID != "" && pathID != bodyID {
		RespondBadRequest(ctx, "id in path and body do not match", nil)
		return "", false
	}

	id := pathID
	if id == "" {
		id = bodyID
	}

	if id == "" {
		RespondBadRequest(ctx, "id is required", nil)
		return "", false
	}

	if _, err := uuid.Parse(id); err != nil {
		RespondBadRequest(ctx, "id must be a valid UUID", nil)
		return "", false
	}

	return id, true
}

// resolveDeleteID reads the id for DELETE, where a body is optional.
func resolveDeleteID(ctx *gin.Context) (string, bool) {
	var req idRequest

	if ctx.Request.ContentLength != 0 {
		if !BindJSON(ctx, &req) {
			return "", false
		}
	}

	return resolveID(ctx, req.ID)
}

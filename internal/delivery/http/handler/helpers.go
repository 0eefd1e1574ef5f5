package handler

import (
	"net/http"
	"strconv"

	"go-medical-appointment/internal/delivery/dto"
	"go-medical-appointment/internal/usecase"
	"go-medical-appointment/pkg/response"

	"github.com/gorilla/mux"
)

// pageFromQuery reads ?page=&limit= and clamps them.
func pageFromQuery(r *http.Request) dto.PageRequest {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return dto.PageRequest{Page: page, Limit: limit}.Normalize()
}

func pageMeta(p dto.PageRequest, total int64) *response.Meta {
	return &response.Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: dto.TotalPages(total, p.Limit),
	}
}

func intVar(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}

// writeAccessError handles the caller errors every protected usecase can
// return. It reports whether err was one of them.
func writeAccessError(w http.ResponseWriter, err error) bool {
	switch err {
	case usecase.ErrUnauthenticated:
		response.Unauthorized(w, "Invalid token")
	case usecase.ErrForbidden:
		response.Forbidden(w, "")
	default:
		return false
	}
	return true
}

package http

import (
	"errors"
	"net/http"
	"time"

	"nickel/internal/items"
	nlog "nickel/internal/log"
)

type itemsData struct {
	Items []items.Item
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	list, err := s.items.List(r.Context())
	if err != nil {
		nlog.FromContext(r.Context()).Error("Item list failed",
			nlog.FieldOperation, nlog.OpList,
			nlog.FieldError, err)
		InternalServerError("Could not load items.").Write(w)
		return
	}
	if list == nil {
		list = []items.Item{}
	}

	if IsHTMX(r) && !WantsJSON(r) {
		body, err := s.render(r, "items", itemsData{Items: list})
		if err != nil {
			InternalServerError("Could not render items.").Write(w)
			return
		}
		NewHTMXResponse().BodyHTML(body).Write(w)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	it, err := s.items.Create(r.Context(), time.Now())
	if err != nil {
		nlog.FromContext(r.Context()).Error("Item create failed",
			nlog.FieldOperation, nlog.OpCreate,
			nlog.FieldError, err)
		InternalServerError("Could not save the item.").Write(w)
		return
	}
	nlog.FromContext(r.Context()).Info("Item created", nlog.FieldItemID, it.ID)

	resp := jsonResponse(r, http.StatusCreated, it)
	if IsHTMX(r) {
		resp.TriggerItemsChanged()
	}
	resp.Write(w)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := ParseItemID(r)
	if err != nil {
		BadRequestError("Invalid item id.").Write(w)
		return
	}
	if err := s.items.Delete(r.Context(), id); err != nil {
		if errors.Is(err, items.ErrNotFound) {
			NotFoundError("Unknown item.").Write(w)
			return
		}
		nlog.FromContext(r.Context()).Error("Item delete failed",
			nlog.FieldItemID, id,
			nlog.FieldOperation, nlog.OpDelete,
			nlog.FieldError, err)
		InternalServerError("Could not delete the item.").Write(w)
		return
	}
	NewHTMXResponse().Status(http.StatusNoContent).TriggerItemsChanged().Write(w)
}

package pets

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pettopia/pettopia-server/cmd/models"
	"github.com/pettopia/pettopia-server/cmd/utils"
	"github.com/pettopia/pettopia-server/db"
	"github.com/sirupsen/logrus"
)

const msgLoadPets = "Không thể tải danh sách thú cưng."

type Store interface {
	ListPets(ctx context.Context) ([]models.Pet, error)
	GetPet(ctx context.Context, id string) (*models.Pet, error)
}

type PetHandler struct {
	store  Store
	logger *logrus.Logger
	now    func() time.Time
}

func NewPetHandler(store Store, logger *logrus.Logger) *PetHandler {
	return &PetHandler{store: store, logger: logger, now: time.Now}
}

func (h *PetHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/pets", h.GetPets).Methods("GET")
	router.HandleFunc("/pets/{id}", h.GetPet).Methods("GET")
}

func (h *PetHandler) GetPets(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListPets(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("listing pets")
		utils.WriteError(w, http.StatusInternalServerError, msgLoadPets)
		return
	}
	now := h.now()
	profiles := make([]Profile, len(list))
	for i, p := range list {
		profiles[i] = ProfileOf(p, now)
	}
	utils.WriteJSON(w, http.StatusOK, profiles)
}

// GetPet returns one pet's ID card. Ids that are not UUIDs cannot exist.
func (h *PetHandler) GetPet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, utils.MsgPetNotFound)
		return
	}

	pet, err := h.store.GetPet(r.Context(), id.String())
	if errors.Is(err, db.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, utils.MsgPetNotFound)
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("pet_id", id).Error("loading pet")
		utils.WriteError(w, http.StatusInternalServerError, msgLoadPets)
		return
	}
	utils.WriteJSON(w, http.StatusOK, ProfileOf(*pet, h.now()))
}

package utils

import (
	"encoding/json"
	"net/http"
)

// Messages shown to the mini-app user.
const (
	MsgLoginRequired  = "Bạn cần đăng nhập để thực hiện thao tác này."
	MsgLoadPosts      = "Không thể tải bài viết. Vui lòng thử lại sau."
	MsgLoadPostDetail = "Không thể tải chi tiết bài viết."
	MsgLike           = "Không thể cập nhật lượt thích."
	MsgComment        = "Không thể gửi bình luận."
	MsgCreatePost     = "Không thể tạo bài viết. Vui lòng thử lại."
	MsgInvalidForm    = "Vui lòng kiểm tra lại thông tin bài viết."
	MsgPetNotFound    = "Không tìm thấy thú cưng"
)

type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Message: message})
}

func WriteFieldErrors(w http.ResponseWriter, fields map[string]string) {
	WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Message: MsgInvalidForm, Errors: fields})
}

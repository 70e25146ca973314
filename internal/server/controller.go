package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/feed-client/internal/models"
	"github.com/nguyentranbao-ct/feed-client/internal/usecase"
)

type Controller interface {
	Health(c echo.Context) error

	ListConversations(c echo.Context) error
	OpenConversation(c echo.Context) error
	CloseConversation(c echo.Context) error
	SendMessage(c echo.Context) error
	GetDraft(c echo.Context) error

	GetPost(c echo.Context) error
	ReactToPost(c echo.Context) error
	UnreactPost(c echo.Context) error
	ReactToNode(c echo.Context) error
	CreateComment(c echo.Context) error
	CreateReply(c echo.Context) error
	SharePost(c echo.Context) error
}

type controller struct {
	chat      usecase.ChatUsecase
	mutations usecase.MutationEngine
}

func NewController(chat usecase.ChatUsecase, mutations usecase.MutationEngine) Controller {
	return &controller{
		chat:      chat,
		mutations: mutations,
	}
}

func (h *controller) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "feed-client",
	})
}

func (h *controller) ListConversations(c echo.Context) error {
	selfID := c.QueryParam("self_id")
	if selfID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing self_id")
	}

	ctx := c.Request().Context()
	convs, err := h.chat.ListConversations(ctx, selfID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convs)
}

type openConversationRequest struct {
	SelfID string `json:"self_id" validate:"required"`
	PeerID string `json:"peer_id" validate:"required"`
}

func (h *controller) OpenConversation(c echo.Context) error {
	var req openConversationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	conv, msgs, err := h.chat.OpenConversation(ctx, req.SelfID, req.PeerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"conversation": conv,
		"messages":     msgs,
	})
}

func (h *controller) CloseConversation(c echo.Context) error {
	h.chat.CloseConversation(c.Request().Context(), c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (h *controller) SendMessage(c echo.Context) error {
	var params models.SendMessageParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	msg, err := h.chat.SendMessage(ctx, params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, msg)
}

func (h *controller) GetDraft(c echo.Context) error {
	selfID := c.QueryParam("self_id")
	peerID := c.QueryParam("peer_id")
	if selfID == "" || peerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing self_id or peer_id")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"draft": h.chat.Draft(selfID, peerID),
	})
}

func (h *controller) GetPost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := h.mutations.RefreshPost(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

type reactionRequest struct {
	ReactorID string              `json:"reactor_id" validate:"required"`
	Type      models.ReactionType `json:"type" validate:"required,reaction"`
}

func (h *controller) ReactToPost(c echo.Context) error {
	var req reactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.mutations.ReactToPost(ctx, c.Param("id"), req.ReactorID, req.Type); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *controller) UnreactPost(c echo.Context) error {
	reactorID := c.QueryParam("reactor_id")
	if reactorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing reactor_id")
	}

	ctx := c.Request().Context()
	if err := h.mutations.UnreactPost(ctx, c.Param("id"), reactorID); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

type nodeReactionRequest struct {
	PostID    string                `json:"post_id" validate:"required"`
	Target    models.ReactionTarget `json:"target" validate:"required,oneof=comment reply"`
	ReactorID string                `json:"reactor_id" validate:"required"`
	Type      models.ReactionType   `json:"type" validate:"required,reaction"`
}

func (h *controller) ReactToNode(c echo.Context) error {
	var req nodeReactionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	err := h.mutations.ReactToNode(ctx, req.PostID, c.Param("id"), req.Target, req.ReactorID, req.Type)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *controller) CreateComment(c echo.Context) error {
	var params usecase.CommentParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	params.PostID = c.Param("id")
	if err := c.Validate(params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	tempID, err := h.mutations.Comment(ctx, params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"client_temp_id": tempID,
	})
}

func (h *controller) CreateReply(c echo.Context) error {
	var params usecase.ReplyParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	params.CommentID = c.Param("id")
	if err := c.Validate(params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	tempID, err := h.mutations.Reply(ctx, params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"client_temp_id": tempID,
	})
}

type shareRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (h *controller) SharePost(c echo.Context) error {
	var req shareRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.mutations.Share(ctx, c.Param("id"), req.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

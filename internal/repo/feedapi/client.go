package feedapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/nguyentranbao-ct/feed-client/internal/config"
	"github.com/nguyentranbao-ct/feed-client/internal/models"
)

// Client is the REST surface of the social backend consumed by the engines.
// The listing endpoint hides conversations with zero messages, so write-path
// signals (creation success, conflict payloads, first-send responses) are
// more trustworthy than the read path.
type Client interface {
	ListConversations(ctx context.Context) ([]ConversationEnvelope, error)
	CreateConversation(ctx context.Context, participantID string) (*ConversationEnvelope, error)
	GetMessages(ctx context.Context, conversationID string, limit int) ([]MessageEnvelope, error)
	SendMessage(ctx context.Context, conversationID string, params SendMessageParams) (*MessageEnvelope, error)
	ConversationExists(ctx context.Context, conversationID string) bool

	GetPost(ctx context.Context, postID string) (*models.Post, error)
	ReactToPost(ctx context.Context, postID string, req ReactionRequest) error
	DeletePostReaction(ctx context.Context, postID, reactorID string) error
	ReactToComment(ctx context.Context, commentID string, req ReactionRequest) error
	CreateComment(ctx context.Context, postID string, req CreateCommentRequest) (*models.Comment, error)
	CreateReply(ctx context.Context, commentID string, req CreateReplyRequest) (*models.Reply, error)
	GetReplies(ctx context.Context, commentID string) ([]*models.Reply, error)
	SharePost(ctx context.Context, postID, userID string) (int, error)
}

// SendMessageParams carries the multipart body of a message send.
type SendMessageParams struct {
	SenderID     string
	Content      string
	ClientTempID string
	FileName     string
	FileType     string
	File         []byte
}

type client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(conf *config.Config) Client {
	return &client{
		httpClient: &http.Client{
			Timeout: conf.Backend.Timeout,
		},
		baseURL: strings.TrimRight(conf.Backend.BaseURL, "/"),
		token:   conf.Backend.Token,
	}
}

func (c *client) ListConversations(ctx context.Context) ([]ConversationEnvelope, error) {
	var out []ConversationEnvelope
	if err := c.doJSON(ctx, http.MethodGet, "/conversations", nil, &out); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

func (c *client) CreateConversation(ctx context.Context, participantID string) (*ConversationEnvelope, error) {
	body := CreateConversationRequest{ParticipantID: participantID}
	var out ConversationEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/conversations", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) GetMessages(ctx context.Context, conversationID string, limit int) ([]MessageEnvelope, error) {
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []MessageEnvelope
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	return out, nil
}

// ConversationExists is the lightweight existence probe used while chasing
// candidate ids out of conflict payloads. Any failure means "unknown", which
// callers treat as "no".
func (c *client) ConversationExists(ctx context.Context, conversationID string) bool {
	path := "/conversations/" + url.PathEscape(conversationID) + "/messages?limit=1"
	var out []MessageEnvelope
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		log.Debugw(ctx, "conversation probe failed", "conversation_id", conversationID, "error", err)
		return false
	}
	return true
}

func (c *client) SendMessage(ctx context.Context, conversationID string, params SendMessageParams) (*MessageEnvelope, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"sender_id":      params.SenderID,
		"content":        params.Content,
		"client_temp_id": params.ClientTempID,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if len(params.File) > 0 {
		fw, err := mw.CreateFormFile("file", params.FileName)
		if err != nil {
			return nil, fmt.Errorf("create form file: %w", err)
		}
		if _, err := fw.Write(params.File); err != nil {
			return nil, fmt.Errorf("write form file: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	path := "/conversations/" + url.PathEscape(conversationID) + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.NetworkError{Op: "send message", Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var out MessageEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode send response: %w", err)
	}
	return &out, nil
}

func (c *client) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var out models.Post
	if err := c.doJSON(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID), nil, &out); err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	for i := range out.Files {
		out.Files[i].Path = models.NormalizeAttachmentPath(out.Files[i].Path)
	}
	return &out, nil
}

func (c *client) ReactToPost(ctx context.Context, postID string, req ReactionRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/reactions", req, nil)
}

func (c *client) DeletePostReaction(ctx context.Context, postID, reactorID string) error {
	path := "/posts/" + url.PathEscape(postID) + "/reactions?reactor_id=" + url.QueryEscape(reactorID)
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *client) ReactToComment(ctx context.Context, commentID string, req ReactionRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/comments/"+url.PathEscape(commentID)+"/reactions", req, nil)
}

func (c *client) CreateComment(ctx context.Context, postID string, req CreateCommentRequest) (*models.Comment, error) {
	var out models.Comment
	if err := c.doJSON(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/comments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) CreateReply(ctx context.Context, commentID string, req CreateReplyRequest) (*models.Reply, error) {
	var out models.Reply
	if err := c.doJSON(ctx, http.MethodPost, "/comments/"+url.PathEscape(commentID)+"/replies", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) GetReplies(ctx context.Context, commentID string) ([]*models.Reply, error) {
	var out []*models.Reply
	if err := c.doJSON(ctx, http.MethodGet, "/comments/"+url.PathEscape(commentID)+"/replies", nil, &out); err != nil {
		return nil, fmt.Errorf("get replies: %w", err)
	}
	return out, nil
}

func (c *client) SharePost(ctx context.Context, postID, userID string) (int, error) {
	body := map[string]string{"user_id": userID}
	var out struct {
		ShareCount int `json:"share_count"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/share", body, &out); err != nil {
		return 0, err
	}
	return out.ShareCount, nil
}

func (c *client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &models.NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// checkStatus maps non-2xx responses to the error taxonomy. Conflicts keep
// the raw payload: the existing conversation id may be buried in it.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	switch resp.StatusCode {
	case http.StatusConflict:
		return &models.ConflictError{StatusCode: resp.StatusCode, Payload: payload}
	case http.StatusNotFound:
		return models.ErrNotFound
	default:
		return &models.NetworkError{
			Op:  "http " + strconv.Itoa(resp.StatusCode),
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(payload, 256)),
		}
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Package soopapi implements the two HTTP collaborators the chat
// client consumes: live-stream session resolution and the channel
// emote catalog. Both are plain request/response calls; retry and
// backoff policy is left to the caller.
package soopapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soopkit/soopchat/chat"
	"github.com/soopkit/soopchat/domain"
)

const (
	defaultBaseURL = "https://live.sooplive.co.kr"
	defaultTimeout = 10 * time.Second

	livePath  = "/afreeca/player_live_api.php"
	emotePath = "/api/signature_emoticon_api.php"
)

// Config holds configuration for the API client.
// Optional fields with defaults:
// - BaseURL: the live service origin (default: "https://live.sooplive.co.kr")
// - HTTPClient: the underlying client (default: 10s timeout)
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls the SOOP live service.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Ensure Client satisfies the collaborator interface of the chat client.
var _ chat.StreamAPI = (*Client)(nil)

// New creates an API client.
func New(config Config, logger *zap.Logger) *Client {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    httpClient,
		log:     logger,
	}
}

type liveResponse struct {
	Channel struct {
		Result          int    `json:"RESULT"`
		ChannelID       string `json:"BJID"`
		ChatDomain      string `json:"CHDOMAIN"`
		ChatPort        string `json:"CHPT"`
		ChatRoom        string `json:"CHATNO"`
		Ticket          string `json:"FTK"`
		Title           string `json:"TITLE"`
		Bitrate         string `json:"BPS"`
		GeoCC           string `json:"geo_cc"`
		GeoRC           string `json:"geo_rc"`
		AcceptLanguage  string `json:"acpt_lang"`
		ServiceLanguage string `json:"svc_lang"`
		Password        string `json:"BPWD"`
	} `json:"CHANNEL"`
}

// ResolveLiveStream looks up the live session of a channel handle.
// A channel that is not broadcasting yields a descriptor with
// Online=false and no error.
func (c *Client) ResolveLiveStream(ctx context.Context, handle string) (domain.StreamDescriptor, error) {
	form := url.Values{
		"bid":         {handle},
		"type":        {"live"},
		"pwd":         {""},
		"player_type": {"html5"},
		"stream_type": {"common"},
		"mode":        {"landing"},
		"from_api":    {"0"},
	}

	endpoint := fmt.Sprintf("%s%s?bjid=%s", c.baseURL, livePath, url.QueryEscape(handle))
	var resp liveResponse
	if err := c.postForm(ctx, endpoint, form, &resp); err != nil {
		return domain.StreamDescriptor{}, fmt.Errorf("soopapi: resolving live stream: %w", err)
	}

	if resp.Channel.Result != 1 {
		c.log.Debug("channel offline", zap.String("channel", handle), zap.Int("result", resp.Channel.Result))
		return domain.StreamDescriptor{}, nil
	}

	port, err := strconv.Atoi(resp.Channel.ChatPort)
	if err != nil {
		return domain.StreamDescriptor{}, fmt.Errorf("soopapi: invalid chat port %q", resp.Channel.ChatPort)
	}

	return domain.StreamDescriptor{
		Online:            true,
		ChannelID:         resp.Channel.ChannelID,
		GatewayDomain:     resp.Channel.ChatDomain,
		GatewayPortBase:   port,
		Title:             resp.Channel.Title,
		Bitrate:           resp.Channel.Bitrate,
		ChatRoom:          resp.Channel.ChatRoom,
		Ticket:            resp.Channel.Ticket,
		GeoCC:             resp.Channel.GeoCC,
		GeoRC:             resp.Channel.GeoRC,
		AcceptLanguage:    resp.Channel.AcceptLanguage,
		ServiceLanguage:   resp.Channel.ServiceLanguage,
		PasswordProtected: resp.Channel.Password == "Y",
	}, nil
}

type emoteResponse struct {
	Version int    `json:"version"`
	ImgPath string `json:"img_path"`
	Data    []struct {
		Title        string `json:"title"`
		TierType     int    `json:"tier_type"`
		PCImg        string `json:"pc_img"`
		PCAltImg     string `json:"pc_alternate_img"`
		MobileImg    string `json:"mobile_img"`
		MobileAltImg string `json:"mob_alternate_img"`
		MoveImg      string `json:"move_img"`
		OrderNo      string `json:"order_no"`
		BlackKeyword string `json:"black_keyword"`
	} `json:"data"`
}

// FetchChannelEmotes loads the channel's custom emote catalog. A
// channel without one yields an empty slice.
func (c *Client) FetchChannelEmotes(ctx context.Context, handle string) ([]domain.ChannelEmote, error) {
	form := url.Values{
		"work":   {"list"},
		"szBjId": {handle},
	}

	var resp emoteResponse
	if err := c.postForm(ctx, c.baseURL+emotePath, form, &resp); err != nil {
		return nil, fmt.Errorf("soopapi: fetching channel emotes: %w", err)
	}
	if resp.Version == 0 {
		return nil, nil
	}

	emotes := make([]domain.ChannelEmote, 0, len(resp.Data))
	for _, e := range resp.Data {
		tier := e.TierType
		if tier == 0 {
			tier = 1
		}
		emote := domain.ChannelEmote{
			Name:        e.Title,
			Tier:        tier,
			PCImg:       resp.ImgPath + e.PCImg,
			MobileImg:   resp.ImgPath + e.MobileImg,
			Animated:    e.MoveImg == "Y",
			Order:       e.OrderNo,
			Blacklisted: e.BlackKeyword == "Y",
		}
		if e.PCAltImg != "" {
			emote.PCAltImg = resp.ImgPath + e.PCAltImg
		}
		if e.MobileAltImg != "" {
			emote.MobileAltImg = resp.ImgPath + e.MobileAltImg
		}
		emotes = append(emotes, emote)
	}
	return emotes, nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

package bot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/Chenche0119/DrugUse-LineBot/internal/gemini"
	"github.com/Chenche0119/DrugUse-LineBot/internal/line"
	"github.com/Chenche0119/DrugUse-LineBot/internal/maps"
	"github.com/Chenche0119/DrugUse-LineBot/internal/store"
)

const (
	aiPrefix              = "AI "
	keywordSearchMedicine = "查詢藥品"
	keywordSearchPharmacy = "查詢藥局"

	eventTimeout = 30 * time.Second
)

// User-visible texts. External faults never carry internal error detail;
// the detail is logged server-side instead.
const (
	msgMedicineHelp   = "請輸入藥品名稱，例如：口服感冒藥"
	msgPharmacyPrompt = "請點選下方按鈕傳送你的位置，我才能幫你找附近藥局喔～"
	msgLocationLabel  = "傳送我的位置"
	msgNotFound       = "未找到相關藥品，請重新輸入"
	msgBusy           = "系統繁忙，請稍後再試"
	msgNoPharmacy     = "附近找不到藥局"
	msgAIUnavailable  = "請重新輸入，AI 服務暫時無法使用"
	msgImageFailed    = "圖片處理失敗，請重新傳送圖片"
)

// Collaborator interfaces. Concrete implementations live in store,
// gemini, maps, line and images; tests substitute fakes.

type MedicineFinder interface {
	Find(name string) (*store.Medicine, error)
}

type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Describe(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}

type PharmacyFinder interface {
	FindNearestPharmacy(ctx context.Context, lat, lng float64) (*maps.Pharmacy, error)
}

type MediaFetcher interface {
	Fetch(ctx context.Context, messageID string) ([]byte, error)
}

type ImageSaver interface {
	Save(data []byte, ext string) (string, error)
}

type Replier interface {
	Reply(replyToken string, msgs []messaging_api.MessageInterface) error
}

// Handler routes one inbound event to the right pipeline and sends
// exactly one reply per reply token.
type Handler struct {
	medicines MedicineFinder
	ai        Completer
	pharmacy  PharmacyFinder
	media     MediaFetcher
	images    ImageSaver
	replier   Replier

	baseURL string
	tokens  *tokenGuard
}

type Deps struct {
	Medicines MedicineFinder
	AI        Completer
	Pharmacy  PharmacyFinder
	Media     MediaFetcher
	Images    ImageSaver
	Replier   Replier
}

func NewHandler(d Deps, baseURL string) *Handler {
	return &Handler{
		medicines: d.Medicines,
		ai:        d.AI,
		pharmacy:  d.Pharmacy,
		media:     d.Media,
		images:    d.Images,
		replier:   d.Replier,
		baseURL:   strings.TrimRight(baseURL, "/"),
		tokens:    newTokenGuard(),
	}
}

// HandleEvent classifies the event and sends its reply. Reply tokens are
// single-use: re-delivery of an already handled event is dropped.
func (h *Handler) HandleEvent(ctx context.Context, ev line.Event) {
	if ev.ReplyToken == "" || !h.tokens.acquire(ev.ReplyToken) {
		log.Printf("bot: dropping event with used or empty reply token")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()

	msgs := h.route(ctx, ev)
	if len(msgs) == 0 {
		return
	}

	if err := h.replier.Reply(ev.ReplyToken, msgs); err != nil {
		log.Printf("bot: failed to send reply: %v", err)
	}
}

// Cleanup drops reply-token guard entries older than maxAge.
func (h *Handler) Cleanup(maxAge time.Duration) {
	h.tokens.cleanup(maxAge)
}

// route never lets a fault escape: anything the pipelines don't convert
// themselves becomes a generic error text, so one event can't take down
// its siblings in the same delivery.
func (h *Handler) route(ctx context.Context, ev line.Event) (msgs []messaging_api.MessageInterface) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bot: panic routing event: %v", r)
			msgs = line.TextReply(msgBusy)
		}
	}()

	switch ev.Kind {
	case line.KindImage:
		return h.describeImage(ctx, ev.MessageID)
	case line.KindLocation:
		return h.findNearbyPharmacy(ctx, ev.Latitude, ev.Longitude)
	case line.KindText:
		return h.routeText(ctx, strings.TrimSpace(ev.Text))
	default:
		return nil
	}
}

// routeText applies first-match-wins classification: "AI " prefix, the
// two reserved keywords, then the medicine lookup fallback.
func (h *Handler) routeText(ctx context.Context, text string) []messaging_api.MessageInterface {
	switch {
	case strings.HasPrefix(text, aiPrefix):
		return h.askAI(ctx, strings.TrimSpace(strings.TrimPrefix(text, aiPrefix)))
	case text == keywordSearchMedicine:
		return line.TextReply(msgMedicineHelp)
	case text == keywordSearchPharmacy:
		return line.LocationPrompt(msgPharmacyPrompt, msgLocationLabel)
	default:
		return h.lookupMedicine(strings.ToLower(text))
	}
}

func (h *Handler) askAI(ctx context.Context, question string) []messaging_api.MessageInterface {
	answer, err := h.ai.Complete(ctx, question)
	if err != nil {
		log.Printf("bot: ai completion failed: %v", err)
		return line.TextReply(msgAIUnavailable)
	}
	return line.TextReply(answer)
}

func (h *Handler) lookupMedicine(name string) []messaging_api.MessageInterface {
	m, err := h.medicines.Find(name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return line.TextReply(msgNotFound)
	case err != nil:
		log.Printf("bot: medicine lookup failed: %v", err)
		return line.TextReply(msgBusy)
	}
	return line.MedicineReply(m)
}

func (h *Handler) findNearbyPharmacy(ctx context.Context, lat, lng float64) []messaging_api.MessageInterface {
	p, err := h.pharmacy.FindNearestPharmacy(ctx, lat, lng)
	switch {
	case errors.Is(err, maps.ErrNoPharmacy):
		return line.TextReply(msgNoPharmacy)
	case err != nil:
		log.Printf("bot: pharmacy search failed: %v", err)
		return line.TextReply(msgBusy)
	}
	return line.PharmacyCard(p)
}

// describeImage fetches the image, hosts a copy under /images/ and asks
// the vision model for the four-field description. Any fault in the
// chain short-circuits to the image error text.
func (h *Handler) describeImage(ctx context.Context, messageID string) []messaging_api.MessageInterface {
	data, err := h.media.Fetch(ctx, messageID)
	if err != nil {
		log.Printf("bot: media fetch failed: %v", err)
		return line.TextReply(msgImageFailed)
	}

	// The bytes must decode as an image before anything is persisted or
	// sent to the vision model.
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		log.Printf("bot: image decode failed: %v", err)
		return line.TextReply(msgImageFailed)
	}

	filename, err := h.images.Save(data, format)
	if err != nil {
		log.Printf("bot: image save failed: %v", err)
		return line.TextReply(msgImageFailed)
	}
	imageURL := h.baseURL + "/images/" + filename

	description, err := h.ai.Describe(ctx, data, "image/"+format, gemini.MedicineImagePrompt)
	if err != nil {
		log.Printf("bot: image description failed: %v", err)
		return line.TextReply(msgImageFailed)
	}

	return line.ImageWithCaption(imageURL, description)
}

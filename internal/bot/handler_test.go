package bot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Chenche0119/DrugUse-LineBot/internal/line"
	"github.com/Chenche0119/DrugUse-LineBot/internal/maps"
	"github.com/Chenche0119/DrugUse-LineBot/internal/store"
)

// --- fakes ---

type fakeFinder struct {
	records map[string]*store.Medicine
	err     error
	queries []string
}

func (f *fakeFinder) Find(name string) (*store.Medicine, error) {
	f.queries = append(f.queries, name)
	if f.err != nil {
		return nil, f.err
	}
	if m, ok := f.records[name]; ok {
		return m, nil
	}
	return nil, store.ErrNotFound
}

type fakeCompleter struct {
	completeResp string
	completeErr  error
	prompts      []string

	describeResp  string
	describeErr   error
	describeMimes []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.completeResp, f.completeErr
}

func (f *fakeCompleter) Describe(_ context.Context, _ []byte, mimeType, _ string) (string, error) {
	f.describeMimes = append(f.describeMimes, mimeType)
	return f.describeResp, f.describeErr
}

type panicCompleter struct{ fakeCompleter }

func (p *panicCompleter) Complete(context.Context, string) (string, error) {
	panic("completer blew up")
}

type fakePharmacy struct {
	result *maps.Pharmacy
	err    error
	calls  int
	lat    float64
	lng    float64
}

func (f *fakePharmacy) FindNearestPharmacy(_ context.Context, lat, lng float64) (*maps.Pharmacy, error) {
	f.calls++
	f.lat, f.lng = lat, lng
	return f.result, f.err
}

type fakeMedia struct {
	data []byte
	err  error
}

func (f *fakeMedia) Fetch(context.Context, string) ([]byte, error) {
	return f.data, f.err
}

type fakeSaver struct {
	name  string
	err   error
	saves int
}

func (f *fakeSaver) Save([]byte, string) (string, error) {
	f.saves++
	return f.name, f.err
}

type replyCall struct {
	token string
	msgs  []messaging_api.MessageInterface
}

type fakeReplier struct {
	calls []replyCall
}

func (f *fakeReplier) Reply(token string, msgs []messaging_api.MessageInterface) error {
	f.calls = append(f.calls, replyCall{token: token, msgs: msgs})
	return nil
}

type deps struct {
	finder   *fakeFinder
	ai       *fakeCompleter
	pharmacy *fakePharmacy
	media    *fakeMedia
	saver    *fakeSaver
	replier  *fakeReplier
}

func newTestHandler(t *testing.T) (*Handler, *deps) {
	t.Helper()
	d := &deps{
		finder:   &fakeFinder{records: map[string]*store.Medicine{}},
		ai:       &fakeCompleter{completeResp: "answer", describeResp: "description"},
		pharmacy: &fakePharmacy{},
		media:    &fakeMedia{},
		saver:    &fakeSaver{name: "abc123.png"},
		replier:  &fakeReplier{},
	}
	h := NewHandler(Deps{
		Medicines: d.finder,
		AI:        d.ai,
		Pharmacy:  d.pharmacy,
		Media:     d.media,
		Images:    d.saver,
		Replier:   d.replier,
	}, "https://example.com")
	return h, d
}

func textEvent(text string) line.Event {
	return line.Event{ReplyToken: "tok-" + text, Kind: line.KindText, Text: text}
}

func singleTextReply(t *testing.T, r *fakeReplier) string {
	t.Helper()
	require.Len(t, r.calls, 1)
	require.Len(t, r.calls[0].msgs, 1)
	msg, ok := r.calls[0].msgs[0].(*messaging_api.TextMessage)
	require.True(t, ok, "expected a text message")
	return msg.Text
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// --- text routing ---

func TestSearchMedicineKeyword(t *testing.T) {
	h, d := newTestHandler(t)
	h.HandleEvent(context.Background(), textEvent("查詢藥品"))

	assert.Equal(t, msgMedicineHelp, singleTextReply(t, d.replier))
	assert.Empty(t, d.finder.queries)
	assert.Empty(t, d.ai.prompts)
	assert.Zero(t, d.pharmacy.calls)
}

func TestSearchPharmacyKeyword(t *testing.T) {
	h, d := newTestHandler(t)
	h.HandleEvent(context.Background(), textEvent("查詢藥局"))

	require.Len(t, d.replier.calls, 1)
	require.Len(t, d.replier.calls[0].msgs, 1)
	msg, ok := d.replier.calls[0].msgs[0].(*messaging_api.TextMessage)
	require.True(t, ok)
	assert.Equal(t, msgPharmacyPrompt, msg.Text)
	require.NotNil(t, msg.QuickReply)
	require.Len(t, msg.QuickReply.Items, 1)
	action, ok := msg.QuickReply.Items[0].Action.(*messaging_api.LocationAction)
	require.True(t, ok, "quick reply should carry a location action")
	assert.Equal(t, msgLocationLabel, action.Label)

	assert.Empty(t, d.finder.queries)
	assert.Zero(t, d.pharmacy.calls)
}

func TestAIPrefixForwardsRemainder(t *testing.T) {
	h, d := newTestHandler(t)
	d.ai.completeResp = "可以，但要注意劑量。"
	h.HandleEvent(context.Background(), textEvent("AI 阿斯匹靈可以每天吃嗎"))

	require.Len(t, d.ai.prompts, 1)
	assert.Equal(t, "阿斯匹靈可以每天吃嗎", d.ai.prompts[0])
	assert.Equal(t, "可以，但要注意劑量。", singleTextReply(t, d.replier))
}

func TestAIPrefixIsCaseSensitive(t *testing.T) {
	h, d := newTestHandler(t)
	h.HandleEvent(context.Background(), textEvent("ai 阿斯匹靈"))

	// lowercase prefix falls through to the lookup pipeline
	assert.Empty(t, d.ai.prompts)
	assert.Equal(t, []string{"ai 阿斯匹靈"}, d.finder.queries)
}

func TestAIFaultHidesDetail(t *testing.T) {
	h, d := newTestHandler(t)
	d.ai.completeErr = errors.New("upstream exploded: quota exceeded")
	h.HandleEvent(context.Background(), textEvent("AI 測試"))

	text := singleTextReply(t, d.replier)
	assert.Equal(t, msgAIUnavailable, text)
	assert.NotContains(t, text, "quota")
}

func TestLookupUsesLowercasedInput(t *testing.T) {
	h, d := newTestHandler(t)
	d.finder.records["paracetamol"] = &store.Medicine{
		ChineseName: "普拿疼",
		EnglishName: "paracetamol",
		Indication:  "退燒止痛",
	}
	h.HandleEvent(context.Background(), textEvent("Paracetamol"))

	assert.Equal(t, []string{"paracetamol"}, d.finder.queries)
	assert.Equal(t, "藥品名稱：普拿疼\n英文名稱：paracetamol\n適應症：退燒止痛", singleTextReply(t, d.replier))
}

func TestLookupNotFound(t *testing.T) {
	h, d := newTestHandler(t)
	h.HandleEvent(context.Background(), textEvent("不存在的藥"))

	assert.Equal(t, msgNotFound, singleTextReply(t, d.replier))
}

func TestLookupStoreFault(t *testing.T) {
	h, d := newTestHandler(t)
	d.finder.err = errors.New("db file corrupted")
	h.HandleEvent(context.Background(), textEvent("普拿疼"))

	text := singleTextReply(t, d.replier)
	assert.Equal(t, msgBusy, text)
	assert.NotContains(t, text, "corrupted")
}

// --- location routing ---

func TestLocationNoPharmacyNearby(t *testing.T) {
	h, d := newTestHandler(t)
	d.pharmacy.err = maps.ErrNoPharmacy
	h.HandleEvent(context.Background(), line.Event{
		ReplyToken: "tok-loc",
		Kind:       line.KindLocation,
		Latitude:   25.03,
		Longitude:  121.56,
	})

	assert.Equal(t, msgNoPharmacy, singleTextReply(t, d.replier))
	assert.Equal(t, 25.03, d.pharmacy.lat)
	assert.Equal(t, 121.56, d.pharmacy.lng)
}

func TestLocationBuildsPharmacyCard(t *testing.T) {
	h, d := newTestHandler(t)
	d.pharmacy.result = &maps.Pharmacy{
		Name:     "健康藥局",
		Phone:    "02-1234-5678",
		Distance: "350 m",
		MapURL:   "https://www.google.com/maps/search/?api=1&query=25.031,121.561",
	}
	h.HandleEvent(context.Background(), line.Event{
		ReplyToken: "tok-loc",
		Kind:       line.KindLocation,
		Latitude:   25.03,
		Longitude:  121.56,
	})

	require.Len(t, d.replier.calls, 1)
	require.Len(t, d.replier.calls[0].msgs, 1)
	flex, ok := d.replier.calls[0].msgs[0].(*messaging_api.FlexMessage)
	require.True(t, ok, "expected a flex message")
	bubble, ok := flex.Contents.(*messaging_api.FlexBubble)
	require.True(t, ok)
	button, ok := bubble.Footer.Contents[0].(*messaging_api.FlexButton)
	require.True(t, ok)
	action, ok := button.Action.(*messaging_api.UriAction)
	require.True(t, ok)
	assert.Contains(t, action.Uri, "query=25.031,121.561")
}

func TestLocationGeoFault(t *testing.T) {
	h, d := newTestHandler(t)
	d.pharmacy.err = errors.New("maps api 500")
	h.HandleEvent(context.Background(), line.Event{ReplyToken: "tok-loc", Kind: line.KindLocation})

	assert.Equal(t, msgBusy, singleTextReply(t, d.replier))
}

// --- image routing ---

func TestImageDecodeFailureSkipsVisionCall(t *testing.T) {
	h, d := newTestHandler(t)
	d.media.data = []byte("definitely not an image")
	h.HandleEvent(context.Background(), line.Event{ReplyToken: "tok-img", Kind: line.KindImage, MessageID: "m1"})

	assert.Equal(t, msgImageFailed, singleTextReply(t, d.replier))
	assert.Empty(t, d.ai.describeMimes)
	assert.Zero(t, d.saver.saves)
}

func TestImageFetchFailure(t *testing.T) {
	h, d := newTestHandler(t)
	d.media.err = errors.New("blob 404")
	h.HandleEvent(context.Background(), line.Event{ReplyToken: "tok-img", Kind: line.KindImage, MessageID: "m1"})

	text := singleTextReply(t, d.replier)
	assert.Equal(t, msgImageFailed, text)
	assert.NotContains(t, text, "404")
}

func TestImageReplyIsOrderedPair(t *testing.T) {
	h, d := newTestHandler(t)
	d.media.data = pngBytes(t)
	d.ai.describeResp = "🔹 中文品名：普拿疼"
	h.HandleEvent(context.Background(), line.Event{ReplyToken: "tok-img", Kind: line.KindImage, MessageID: "m1"})

	require.Len(t, d.replier.calls, 1)
	msgs := d.replier.calls[0].msgs
	require.Len(t, msgs, 2)

	img, ok := msgs[0].(*messaging_api.ImageMessage)
	require.True(t, ok, "first part must be the image reference")
	assert.Equal(t, "https://example.com/images/abc123.png", img.OriginalContentUrl)
	assert.Equal(t, img.OriginalContentUrl, img.PreviewImageUrl)

	caption, ok := msgs[1].(*messaging_api.TextMessage)
	require.True(t, ok, "second part must be the caption")
	assert.Equal(t, "🔹 中文品名：普拿疼", caption.Text)

	assert.Equal(t, []string{"image/png"}, d.ai.describeMimes)
	assert.Equal(t, 1, d.saver.saves)
}

// --- event boundary ---

func TestReplyTokenSingleUse(t *testing.T) {
	h, d := newTestHandler(t)
	ev := textEvent("查詢藥品")

	h.HandleEvent(context.Background(), ev)
	h.HandleEvent(context.Background(), ev)

	assert.Len(t, d.replier.calls, 1, "same reply token must not be used twice")
}

func TestEmptyReplyTokenDropped(t *testing.T) {
	h, d := newTestHandler(t)
	h.HandleEvent(context.Background(), line.Event{Kind: line.KindText, Text: "查詢藥品"})

	assert.Empty(t, d.replier.calls)
}

func TestPanicBecomesGenericReply(t *testing.T) {
	h, d := newTestHandler(t)
	h.ai = &panicCompleter{}
	h.HandleEvent(context.Background(), textEvent("AI 測試"))

	text := singleTextReply(t, d.replier)
	assert.Equal(t, msgBusy, text)
	assert.NotContains(t, text, "blew up")
}

func TestLeadingWhitespaceTrimmed(t *testing.T) {
	h, d := newTestHandler(t)
	h.HandleEvent(context.Background(), line.Event{ReplyToken: "tok-ws", Kind: line.KindText, Text: "  查詢藥品  "})

	assert.Equal(t, msgMedicineHelp, singleTextReply(t, d.replier))
}

func TestTokenGuardCleanup(t *testing.T) {
	g := newTokenGuard()
	require.True(t, g.acquire("t1"))
	require.False(t, g.acquire("t1"))

	g.cleanup(0)
	assert.True(t, g.acquire("t1"), "cleanup should release aged entries")
}

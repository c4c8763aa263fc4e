package line

import (
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/Chenche0119/DrugUse-LineBot/internal/maps"
	"github.com/Chenche0119/DrugUse-LineBot/internal/store"
)

// Reply assembly. Every inbound event resolves to exactly one of these
// shapes; a reply may bundle several message parts but is sent once.

// TextReply is the plain text shape, also used for error replies.
func TextReply(text string) []messaging_api.MessageInterface {
	return []messaging_api.MessageInterface{
		&messaging_api.TextMessage{Text: text},
	}
}

// LocationPrompt is a text message with a quick-reply action asking the
// user to share their location.
func LocationPrompt(text, actionLabel string) []messaging_api.MessageInterface {
	return []messaging_api.MessageInterface{
		&messaging_api.TextMessage{
			Text: text,
			QuickReply: &messaging_api.QuickReply{
				Items: []messaging_api.QuickReplyItem{
					{Action: &messaging_api.LocationAction{Label: actionLabel}},
				},
			},
		},
	}
}

// MedicineReply formats a lookup match with its three record fields.
func MedicineReply(m *store.Medicine) []messaging_api.MessageInterface {
	text := fmt.Sprintf("藥品名稱：%s\n英文名稱：%s\n適應症：%s",
		m.ChineseName, m.EnglishName, m.Indication)
	return TextReply(text)
}

// PharmacyCard is the flex bubble for the nearest pharmacy: title, two
// detail lines and a map navigation button.
func PharmacyCard(p *maps.Pharmacy) []messaging_api.MessageInterface {
	bubble := &messaging_api.FlexBubble{
		Body: &messaging_api.FlexBox{
			Layout: "vertical",
			Contents: []messaging_api.FlexComponentInterface{
				&messaging_api.FlexText{Text: p.Name, Weight: "bold", Size: "lg"},
				&messaging_api.FlexText{Text: "電話：" + p.Phone, Size: "sm", Color: "#555555"},
				&messaging_api.FlexText{Text: "距離：" + p.Distance, Size: "sm", Color: "#777777"},
			},
		},
		Footer: &messaging_api.FlexBox{
			Layout: "vertical",
			Contents: []messaging_api.FlexComponentInterface{
				&messaging_api.FlexButton{
					Style:  "link",
					Height: "sm",
					Action: &messaging_api.UriAction{Label: "地圖導航", Uri: p.MapURL},
				},
			},
		},
	}

	return []messaging_api.MessageInterface{
		&messaging_api.FlexMessage{
			AltText:  "附近藥局推薦",
			Contents: bubble,
		},
	}
}

// ImageWithCaption is the ordered two-part image reply: the uploaded
// image reference first, the generated description second.
func ImageWithCaption(imageURL, caption string) []messaging_api.MessageInterface {
	return []messaging_api.MessageInterface{
		&messaging_api.ImageMessage{
			OriginalContentUrl: imageURL,
			PreviewImageUrl:    imageURL,
		},
		&messaging_api.TextMessage{Text: caption},
	}
}

package pst

import (
	"strconv"

	"github.com/exchrecover/edbcore/internal/record"
)

// buildMessagePC builds a message's own Property Context from a
// normalized record.Message.
func buildMessagePC(msg record.Message, now uint64) ([][]byte, []subnodeValue, error) {
	var props []prop

	subject := msg.Subject
	if subject == "" {
		subject = "(No Subject)"
	}
	props = append(props,
		prop{prSubject, propString(subject)},
		prop{prMessageClass, propString(nonEmpty(msg.MessageClass, "IPM.Note"))},
	)

	var flags int64 = msgFlagRead
	if msg.HasAttachments {
		flags |= msgFlagHasAttach
	}
	props = append(props, prop{prMessageFlags, propInt64(flags)})

	if msg.BodyText != "" {
		props = append(props, prop{prBody, propString(msg.BodyText)})
	}
	if msg.BodyHTML != "" {
		props = append(props, prop{prHTML, propBinary([]byte(msg.BodyHTML))})
	}

	props = append(props,
		prop{prImportance, propInt64(int64(msg.Importance))},
		prop{prPriority, propInt64(0)},
		prop{prSensitivity, propInt64(int64(msg.Sensitivity))},
		prop{prHasAttach, propBool(msg.HasAttachments)},
	)

	deliveryTime := now
	if msg.DateReceivedOK {
		deliveryTime = filetimeOf(msg.DateReceived)
	}
	submitTime := deliveryTime
	if msg.DateSentOK {
		submitTime = filetimeOf(msg.DateSent)
	}
	props = append(props,
		prop{prMessageDeliveryTime, propUint64(deliveryTime)},
		prop{prClientSubmitTime, propUint64(submitTime)},
		prop{prCreationTime, propUint64(now)},
		prop{prLastModTime, propUint64(now)},
	)

	bodySize := int64(len(encodeUnicode(msg.BodyText)))
	props = append(props, prop{prMessageSize, propInt64(bodySize)})

	if msg.SenderName != "" {
		props = append(props,
			prop{prSenderName, propString(msg.SenderName)},
			prop{prSentRepresentingName, propString(msg.SenderName)},
		)
	}
	if msg.SenderEmail != "" {
		props = append(props,
			prop{prSenderEmailAddress, propString(msg.SenderEmail)},
			prop{prSenderAddrType, propString("SMTP")},
			prop{prSentRepresentingEmail, propString(msg.SenderEmail)},
			prop{prSentRepresentingAddrType, propString("SMTP")},
		)
	}

	return buildPCNode(props)
}

var recipientsTCColumns = []uint32{prDisplayNameW, prEmailAddress, prAddrType, prRecipientType, prRowID}

func mapiRecipientType(k record.RecipientKind) int64 {
	switch k {
	case record.RecipientCC:
		return mapiCC
	case record.RecipientBCC:
		return mapiBCC
	default:
		return mapiTo
	}
}

func buildRecipientsTC(recipients []record.Recipient) ([][]byte, error) {
	rows := make([]tcRow, len(recipients))
	for i, r := range recipients {
		name := r.DisplayName
		if name == "" {
			name = r.SMTPAddress
		}
		rows[i] = tcRow{
			nid: uint32(i),
			values: map[uint32]PropValue{
				prDisplayNameW:  propString(name),
				prEmailAddress:  propString(r.SMTPAddress),
				prAddrType:      propString("SMTP"),
				prRecipientType: propInt64(mapiRecipientType(r.Kind)),
				prRowID:         propInt64(int64(i)),
			},
		}
	}
	return buildTCNode(recipientsTCColumns, rows)
}

var attachmentsTCColumns = []uint32{
	prAttachNum, prAttachMethod, prAttachLongFilename, prAttachSize,
	prAttachMimeTag, prRenderingPosition,
}

func buildAttachmentsTC(attachments []record.Attachment) ([][]byte, error) {
	rows := make([]tcRow, len(attachments))
	for i, a := range attachments {
		filename := a.Filename
		if filename == "" {
			filename = defaultAttachmentName(i)
		}
		mimeType := a.ContentType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		rows[i] = tcRow{
			nid: uint32(i),
			values: map[uint32]PropValue{
				prAttachNum:          propInt64(int64(i)),
				prAttachMethod:       propInt64(int64(attachByValue)),
				prAttachLongFilename: propString(filename),
				prAttachSize:         propInt64(int64(a.Size())),
				prAttachMimeTag:      propString(mimeType),
				prRenderingPosition:  propInt64(0xFFFFFFFF),
			},
		}
	}
	return buildTCNode(attachmentsTCColumns, rows)
}

// buildAttachmentPC builds the i'th attachment's own per-attachment
// subnode PC, required alongside the Attachments TC summary row by
// [MS-PST] 2.4.6.2.
func buildAttachmentPC(a record.Attachment, i int) ([][]byte, []subnodeValue, error) {
	filename := a.Filename
	if filename == "" {
		filename = defaultAttachmentName(i)
	}
	mimeType := a.ContentType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	props := []prop{
		{prAttachNum, propInt64(int64(i))},
		{prAttachMethod, propInt64(int64(attachByValue))},
		{prAttachLongFilename, propString(filename)},
		{prAttachSize, propInt64(int64(a.Size()))},
		{prAttachMimeTag, propString(mimeType)},
		{prAttachDataBin, propBinary(a.Data)},
	}
	return buildPCNode(props)
}

func defaultAttachmentName(i int) string {
	return "attachment_" + strconv.Itoa(i)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

package conversation

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"tieba-server/services/messaging-api/internal/domain"
	"tieba-server/services/messaging-api/internal/utils/idgen"
	"tieba-server/services/messaging-api/internal/utils/platformerrors"
)

// storeAttachments uploads raw attachment bytes and returns their metadata.
// Nothing is persisted in the database here; rows are written with the message.
func (s *messageService) storeAttachments(ctx context.Context, principal domain.Principal, inputs []AttachmentInput) ([]Attachment, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if s.deps.Storage == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "attachments are not enabled", nil, "fc20a712-8252-4314-bc1f-3c00b48bf2e2")
	}

	attachments := make([]Attachment, 0, len(inputs))
	for _, in := range inputs {
		size := int64(len(in.Data))
		if size == 0 {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("attachment %q is empty", in.FileName), nil, "01a53927-b559-4df9-9b54-7f663e9da6e1")
		}
		if size > s.deps.MaxAttachment {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("attachment %q exceeds %d bytes", in.FileName, s.deps.MaxAttachment), nil, "cf81dbd4-8d64-41e9-9d9a-523be6339099")
		}

		detected := mimetype.Detect(in.Data)
		key := attachmentKey(principal.UserID, in.FileName, detected.Extension())

		url, err := s.deps.Storage.Upload(ctx, key, bytes.NewReader(in.Data), size, detected.String())
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "failed to store attachment", err, "46379ed1-c574-472b-a883-a89bbff8b574")
		}

		attachments = append(attachments, Attachment{
			FileURL:    url,
			StorageKey: key,
			FileName:   path.Base(in.FileName),
			FileSize:   size,
			FileType:   detected.String(),
		})
	}
	return attachments, nil
}

func attachmentKey(userID uint, fileName, detectedExt string) string {
	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" {
		ext = detectedExt
	}
	return fmt.Sprintf("%s/%d/%s%s", attachmentKeyRoot, userID, idgen.NewULID(), ext)
}

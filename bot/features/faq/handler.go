package faq

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"questhelper/bot/common"
	"questhelper/bot/router"
	"questhelper/domain/entities"
	"questhelper/domain/interfaces"
	"questhelper/domain/services"
)

func (f *Feature) handleList(ctx context.Context, req *router.Request) error {
	var faqs []*entities.FAQ
	err := f.withFAQService(ctx, req.Message.GuildID, func(svc interfaces.FAQService) error {
		var err error
		faqs, err = svc.List(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if len(faqs) == 0 {
		_, err = common.ReplyEmbed(f.session, req.Message.ChannelID,
			common.NewEmbed("No FAQs found", "This server does not have any FAQs yet.", common.ColorDanger))
		return err
	}

	names := make([]string, len(faqs))
	for i, faq := range faqs {
		names[i] = faq.Name
	}

	embed := common.NewEmbed(fmt.Sprintf("FAQs (%d)", len(faqs)), strings.Join(names, ", "), common.ColorInfo)
	_, err = common.ReplyEmbed(f.session, req.Message.ChannelID, embed)
	return err
}

func (f *Feature) handleFAQ(ctx context.Context, req *router.Request) error {
	sub, rest := cutWord(req.Args)

	switch strings.ToLower(sub) {
	case "":
		return common.NewUserError("Please provide the name of an FAQ.", "faq without arguments")
	case "create":
		return f.handleCreate(ctx, req, rest)
	case "edit":
		return f.handleEdit(ctx, req, rest)
	case "transfer":
		return f.handleTransfer(ctx, req, rest)
	case "delete":
		return f.handleDelete(ctx, req, rest)
	default:
		return f.handleView(ctx, req, req.Args)
	}
}

func (f *Feature) handleView(ctx context.Context, req *router.Request, name string) error {
	var faq *entities.FAQ
	err := f.withFAQService(ctx, req.Message.GuildID, func(svc interfaces.FAQService) error {
		var err error
		faq, err = svc.Get(ctx, name)
		return err
	})
	if err != nil {
		return faqError(err)
	}

	_, err = common.ReplyEmbed(f.session, req.Message.ChannelID, common.NewEmbed(faq.Name, faq.Content, common.ColorInfo))
	return err
}

func (f *Feature) handleCreate(ctx context.Context, req *router.Request, args string) error {
	name, content := cutWord(args)
	if name == "" || content == "" {
		return common.NewUserError("Usage: `faq create <name> <content>`", "faq create with missing arguments")
	}
	if len(name) > common.MaxFAQNameLength {
		return common.NewUserError(fmt.Sprintf("FAQ names can be at most %d characters.", common.MaxFAQNameLength), "faq name too long")
	}

	if !req.Message.Capabilities.IsAdministrator() {
		if _, ok := f.promoted(req.Message); !ok {
			return common.NewUserError("You need to be a contributor or administrator to create an FAQ.", "faq create without promotion")
		}
	}

	var faq *entities.FAQ
	err := f.withFAQService(ctx, req.Message.GuildID, func(svc interfaces.FAQService) error {
		var err error
		faq, err = svc.Create(ctx, req.Message.GuildID, name, content, req.Message.AuthorID)
		return err
	})
	if err != nil {
		return faqError(err)
	}

	_, err = common.ReplyEmbed(f.session, req.Message.ChannelID, common.NewEmbed("FAQ Created!",
		fmt.Sprintf("The FAQ has been successfully created. You can view it with `faq %s`.", faq.Name), common.ColorSuccess))
	return err
}

func (f *Feature) handleEdit(ctx context.Context, req *router.Request, args string) error {
	name, content := cutWord(args)
	if name == "" || content == "" {
		return common.NewUserError("Usage: `faq edit <name> <content>`", "faq edit with missing arguments")
	}

	err := f.withFAQService(ctx, req.Message.GuildID, func(svc interfaces.FAQService) error {
		_, err := svc.Edit(ctx, name, content, req.Message.AuthorID, req.Message.Capabilities.IsAdministrator())
		return err
	})
	if err != nil {
		return faqError(err)
	}

	_, err = common.ReplyEmbed(f.session, req.Message.ChannelID,
		common.NewEmbed("FAQ Content Modified", "The content of the FAQ was successfully modified.", common.ColorSuccess))
	return err
}

func (f *Feature) handleTransfer(ctx context.Context, req *router.Request, args string) error {
	name, target := cutWord(args)
	newOwnerID, ok := common.ParseUserMention(target)
	if name == "" || !ok {
		return common.NewUserError("Please provide a valid user.", "faq transfer with invalid user")
	}
	if _, err := f.session.GuildMember(common.FormatID(req.Message.GuildID), common.FormatID(newOwnerID)); err != nil {
		return common.NewUserError("Please provide a valid user.", "faq transfer to non-member")
	}

	err := f.withFAQService(ctx, req.Message.GuildID, func(svc interfaces.FAQService) error {
		_, err := svc.Transfer(ctx, name, newOwnerID, req.Message.AuthorID, req.Message.Capabilities.IsAdministrator())
		return err
	})
	if err != nil {
		return faqError(err)
	}

	_, err = common.ReplyEmbed(f.session, req.Message.ChannelID, common.NewEmbed("FAQ Transferred",
		fmt.Sprintf("The FAQ is now owned by %s.", common.GetUserMention(newOwnerID)), common.ColorSuccess))
	return err
}

func (f *Feature) handleDelete(ctx context.Context, req *router.Request, args string) error {
	if args == "" {
		return common.NewUserError("Usage: `faq delete <name>`", "faq delete without a name")
	}

	err := f.withFAQService(ctx, req.Message.GuildID, func(svc interfaces.FAQService) error {
		_, err := svc.Delete(ctx, args, req.Message.AuthorID, req.Message.Capabilities.IsAdministrator())
		return err
	})
	if err != nil {
		return faqError(err)
	}

	_, err = common.ReplyEmbed(f.session, req.Message.ChannelID,
		common.NewEmbed("FAQ Deleted", "The FAQ was successfully deleted.", common.ColorSuccess))
	return err
}

// cutWord splits off the first whitespace-separated word
func cutWord(s string) (string, string) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", ""
	}
	first := fields[0]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), first))
	return first, rest
}

func faqError(err error) error {
	switch {
	case errors.Is(err, services.ErrFAQNotFound):
		return common.NewUserError("The FAQ you requested could not be found.", err.Error())
	case errors.Is(err, services.ErrFAQExists):
		return common.NewUserError("There already exists an FAQ with that name.", err.Error())
	case errors.Is(err, services.ErrFAQReservedName):
		return common.NewUserError("That name is reserved, please pick another.", err.Error())
	case errors.Is(err, services.ErrNotFAQOwner):
		return common.NewUserError("You need to be the owner of this FAQ or an administrator to change it.", err.Error())
	case errors.Is(err, services.ErrInvalidName):
		return common.NewUserError("Please provide both a name and content.", err.Error())
	default:
		return err
	}
}

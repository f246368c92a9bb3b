package http

import (
	"encoding/json"

	"github.com/pairline/pairline-server/internal/core"
	"github.com/pairline/pairline-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.ErrorData, error) {
	switch inbound.Event {
	case proto.InboundJoinChat:
		var join proto.JoinChatData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if join.ChatID == "" {
			return nil, &proto.ErrorData{Message: "chatId is required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandJoinChat,
			ChatID: join.ChatID,
		}, nil, nil
	case proto.InboundLeaveChat:
		var leave proto.JoinChatData
		if err := json.Unmarshal(inbound.Data, &leave); err != nil {
			return nil, nil, err
		}
		if leave.ChatID == "" {
			return nil, &proto.ErrorData{Message: "chatId is required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandLeaveChat,
			ChatID: leave.ChatID,
		}, nil, nil
	case proto.InboundSendMessage:
		var msg proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		if msg.ChatID == "" || msg.Text == "" {
			return nil, &proto.ErrorData{Message: "chatId and text are required"}, nil
		}
		return &core.Command{
			Kind:   core.CommandSendMessage,
			ChatID: msg.ChatID,
			Text:   msg.Text,
		}, nil, nil
	case proto.InboundTyping:
		var typing proto.TypingData
		if err := json.Unmarshal(inbound.Data, &typing); err != nil {
			return nil, nil, err
		}
		if typing.ChatID == "" {
			return nil, &proto.ErrorData{Message: "chatId is required"}, nil
		}
		return &core.Command{
			Kind:     core.CommandTyping,
			ChatID:   typing.ChatID,
			IsTyping: typing.IsTyping,
		}, nil, nil
	default:
		return nil, &proto.ErrorData{Message: "unknown event"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventOnlineUsers:
		userIDs := event.UserIDs
		if userIDs == nil {
			userIDs = []string{}
		}
		return proto.Outbound{
			Event: proto.OutboundOnlineUsers,
			Data:  proto.OnlineUsersData{UserIDs: userIDs},
		}
	case core.EventUserOnline:
		return proto.Outbound{
			Event: proto.OutboundUserOnline,
			Data:  proto.UserPresenceData{UserID: event.UserID},
		}
	case core.EventUserOffline:
		return proto.Outbound{
			Event: proto.OutboundUserOffline,
			Data:  proto.UserPresenceData{UserID: event.UserID},
		}
	case core.EventNewMessage:
		msg := event.Message
		return proto.Outbound{
			Event: proto.OutboundNewMessage,
			Data: proto.NewMessageData{
				ID:        msg.ID,
				ChatID:    msg.ChatID,
				SenderID:  msg.SenderID,
				Text:      msg.Text,
				CreatedAt: msg.CreatedAt.UnixMilli(),
				Sender: proto.SenderData{
					ID:          msg.Sender.ID,
					Username:    msg.Sender.Username,
					DisplayName: msg.Sender.DisplayName,
					AvatarURL:   msg.Sender.AvatarURL,
				},
			},
		}
	case core.EventTyping:
		return proto.Outbound{
			Event: proto.OutboundTyping,
			Data: proto.TypingEventData{
				UserID:   event.UserID,
				ChatID:   event.ChatID,
				IsTyping: event.IsTyping,
			},
		}
	case core.EventSocketError:
		return proto.Outbound{
			Event: proto.OutboundSocketError,
			Data:  proto.ErrorData{Message: errorMessage(event)},
		}
	case core.EventError:
		return proto.Outbound{
			Event: proto.OutboundError,
			Data:  proto.ErrorData{Message: errorMessage(event)},
		}
	default:
		return proto.Outbound{Event: proto.OutboundError, Data: proto.ErrorData{Message: "unknown event"}}
	}
}

func errorMessage(event *core.Event) string {
	if event.Error == nil {
		return "unknown error"
	}
	return event.Error.Message
}

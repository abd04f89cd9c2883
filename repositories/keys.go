package repositories

import (
	"chat-relay/domain"
	"fmt"
	"strings"
	"time"
)

// Key layout. Numeric parts of sortable keys are zero padded to 19 digits
// so that lexicographical order equals numeric order.
//
//	user:{id}                       -> diskUser
//	idx:user:phone:{phone}          -> user id
//	idx:user:handle:{lower handle}  -> user id
//	chat:{id}                       -> diskChat
//	idx:chat:private:{lo}:{hi}      -> chat id
//	idx:chat:invite:{link}          -> chat id
//	member:{chat}:{user}            -> diskMembership
//	idx:user:chats:{user}:{chat}    -> empty
//	msg:{chat}:{unixnano}:{id}      -> diskMessage
//	idx:msg:{id}                    -> msg key
//	bot:{id}                        -> diskBot
//	idx:bot:handle:{lower handle}   -> bot id
//	idx:bot:owner:{user}:{bot}      -> empty
const (
	userPrefix    = "user:"
	chatPrefix    = "chat:"
	memberPrefix  = "member:"
	messagePrefix = "msg:"
	botPrefix     = "bot:"
)

func pad(id int64) string {
	return fmt.Sprintf("%019d", id)
}

func userKey(id domain.UserID) []byte {
	return []byte(userPrefix + pad(int64(id)))
}

func phoneIndexKey(phone string) []byte {
	return []byte("idx:user:phone:" + phone)
}

func handleIndexKey(handle string) []byte {
	return []byte("idx:user:handle:" + strings.ToLower(handle))
}

func chatKey(id domain.ChatID) []byte {
	return []byte(chatPrefix + pad(int64(id)))
}

// privateChatIndexKey is symmetric in its arguments.
func privateChatIndexKey(a, b domain.UserID) []byte {
	if a > b {
		a, b = b, a
	}
	return []byte(fmt.Sprintf("idx:chat:private:%s:%s", pad(int64(a)), pad(int64(b))))
}

func inviteIndexKey(link string) []byte {
	return []byte("idx:chat:invite:" + link)
}

func memberPrefixKey(chatID domain.ChatID) []byte {
	return []byte(memberPrefix + pad(int64(chatID)) + ":")
}

func memberKey(chatID domain.ChatID, userID domain.UserID) []byte {
	return append(memberPrefixKey(chatID), pad(int64(userID))...)
}

func userChatsPrefixKey(userID domain.UserID) []byte {
	return []byte("idx:user:chats:" + pad(int64(userID)) + ":")
}

func userChatKey(userID domain.UserID, chatID domain.ChatID) []byte {
	return append(userChatsPrefixKey(userID), pad(int64(chatID))...)
}

func messagePrefixKey(chatID domain.ChatID) []byte {
	return []byte(messagePrefix + pad(int64(chatID)) + ":")
}

func messageKey(chatID domain.ChatID, at time.Time, id domain.MessageID) []byte {
	return append(messagePrefixKey(chatID), fmt.Sprintf("%019d:%s", at.UnixNano(), pad(int64(id)))...)
}

func messageIndexKey(id domain.MessageID) []byte {
	return []byte("idx:msg:" + pad(int64(id)))
}

func botKey(id domain.BotID) []byte {
	return []byte(botPrefix + pad(int64(id)))
}

func botHandleIndexKey(handle string) []byte {
	return []byte("idx:bot:handle:" + strings.ToLower(handle))
}

func botOwnerPrefixKey(userID domain.UserID) []byte {
	return []byte("idx:bot:owner:" + pad(int64(userID)) + ":")
}

func botOwnerKey(userID domain.UserID, botID domain.BotID) []byte {
	return append(botOwnerPrefixKey(userID), pad(int64(botID))...)
}

// lastSuffix returns the trailing padded id of an index key.
func lastSuffix(key []byte) string {
	s := string(key)
	return s[strings.LastIndex(s, ":")+1:]
}

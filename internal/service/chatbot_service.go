package service

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/educycle/marketplace/internal/constants"
	"github.com/educycle/marketplace/internal/models"
	"github.com/educycle/marketplace/internal/repository"

	"github.com/google/uuid"
)

// chatRule is one keyword rule. Rules are evaluated strictly in slice
// order and the first hit wins, so specific intents must precede the
// generic help catch-all: "how do I sell my textbook" must land on
// the selling rule, not on "how".
type chatRule struct {
	keywords []string
	reply    string
}

var chatRules = []chatRule{
	{
		keywords: []string{"hello", "hi ", "hey", "namaste", "good morning", "good afternoon", "good evening"},
		reply:    "Hi there! I'm the EduCycle assistant. Ask me about buying, selling, payments or anything else on the marketplace.",
	},
	{
		keywords: []string{"bye", "goodbye", "see you", "thanks", "thank you"},
		reply:    "You're welcome! Happy trading on EduCycle.",
	},
	{
		keywords: []string{"buy", "purchase", "shop", "buying", "how to buy", "buy item"},
		reply:    "Browse the catalog, add items to your cart and check out. Items from different sellers are split into separate orders automatically.",
	},
	{
		keywords: []string{"sell", "selling", "list", "add item", "post item", "how to sell"},
		reply:    "To sell something, open \"My Listings\" and hit \"New Listing\". Add a name, category, condition and a price; leave the price empty for a free or swap listing.",
	},
	{
		keywords: []string{"account", "profile", "register", "sign up", "login", "sign in"},
		reply:    "You can register with your campus email from the login page. If you forgot your password, contact support and we'll sort it out.",
	},
	{
		keywords: []string{"safe", "safety", "secure", "trust", "meet", "pickup", "delivery"},
		reply:    "Always meet in a public campus spot for handovers, and keep the conversation on EduCycle messages so there's a record.",
	},
	{
		keywords: []string{"payment", "pay", "money", "price", "cost", "payment method"},
		reply:    "We support card, wallet/UPI and cash on delivery. Card and wallet payments confirm automatically once the gateway settles; refunds are issued by the seller from a completed payment.",
	},
	{
		keywords: []string{"category", "categories", "what can i sell", "what can i buy", "types of items"},
		reply:    "Listings are grouped into textbooks, equipment, room decor, appliances and other. Use the category filter on the catalog page.",
	},
	{
		keywords: []string{"contact", "support", "help desk", "customer service", "report"},
		reply:    "You can reach the EduCycle team at support@educycle.example. For seller questions, message the seller directly from the item page.",
	},
	{
		keywords: []string{"review", "rating", "feedback", "star", "rate"},
		reply:    "After a delivered order you can leave one review per item, with a rating from 1 to 5 stars.",
	},
	{
		keywords: []string{"how", "what", "where", "when", "why", "can i", "help"},
		reply:    "I can help with buying, selling, payments, safety and account questions. Try asking about one of those topics.",
	},
}

// chatDefaultReplies are the deflections for messages no rule
// matches. One is picked at random.
var chatDefaultReplies = []string{
	"Sorry, I didn't catch that. Could you rephrase?",
	"I'm not sure about that one. Try asking about buying, selling or payments.",
	"Hmm, that's beyond me. Ask me about the marketplace and I'll do my best!",
}

// ChatReply is one bot answer with the session it belongs to.
type ChatReply struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// ChatbotService answers keyword questions and persists transcripts
// per session.
type ChatbotService struct {
	chatRepo repository.ChatRepository
}

// NewChatbotService creates the chatbot service.
func NewChatbotService(chatRepo repository.ChatRepository) *ChatbotService {
	return &ChatbotService{chatRepo: chatRepo}
}

// Ask answers one user message. A blank session id starts a fresh
// session. Both the question and the answer are appended to the
// transcript; a transcript write failure does not lose the reply.
func (s *ChatbotService) Ask(sessionID, message string) (*ChatReply, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	message = strings.TrimSpace(message)
	reply := matchChatReply(message)

	if err := s.chatRepo.Append(&models.ChatMessage{
		SessionID: sessionID,
		Sender:    constants.ChatSenderUser,
		Body:      message,
	}); err != nil {
		return nil, err
	}
	if err := s.chatRepo.Append(&models.ChatMessage{
		SessionID: sessionID,
		Sender:    constants.ChatSenderBot,
		Body:      reply,
	}); err != nil {
		return nil, err
	}

	return &ChatReply{SessionID: sessionID, Reply: reply}, nil
}

// Transcript fetches a session's messages in order.
func (s *ChatbotService) Transcript(sessionID string) ([]models.ChatMessage, error) {
	return s.chatRepo.ListBySession(strings.TrimSpace(sessionID))
}

// matchChatReply walks the rules in order and returns the first hit,
// falling back to a random deflection.
func matchChatReply(message string) string {
	normalized := " " + strings.ToLower(strings.TrimSpace(message)) + " "
	if strings.TrimSpace(message) == "" {
		return chatDefaultReplies[0]
	}
	for _, rule := range chatRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(normalized, keyword) {
				return rule.reply
			}
		}
	}
	return chatDefaultReplies[randIndex(len(chatDefaultReplies))]
}

func randIndex(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

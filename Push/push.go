package Push

import (
	"context"
	"fmt"
	"log"

	"K9Ops/Models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

var firebaseClient *messaging.Client
var ctx = context.Background()

// InitFirebase sets up the FCM client from a service-account file. Call
// once at startup; push stays disabled when it is not configured.
func InitFirebase(credentialsFile string) error {
	opt := option.WithCredentialsFile(credentialsFile)

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing Firebase app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting Messaging client: %v", err)
	}

	firebaseClient = client
	log.Println("Firebase initialized successfully")
	return nil
}

// SendToUser pushes a notification to every registered device of one
// user. Best-effort: failures are logged and otherwise ignored, the
// in-app notification row already exists.
func SendToUser(db *gorm.DB, userID uint, title, body string) {
	if firebaseClient == nil {
		return
	}

	var tokens []Models.DeviceToken
	if err := db.Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		log.Printf("Error loading device tokens for user %d: %v\n", userID, err)
		return
	}

	for _, token := range tokens {
		message := &messaging.Message{
			Token: token.Value,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Android: &messaging.AndroidConfig{
				Priority: "high",
			},
		}
		if _, err := firebaseClient.Send(ctx, message); err != nil {
			log.Printf("Error sending push to user %d: %v\n", userID, err)
		}
	}
}

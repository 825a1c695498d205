package repositories

import (
	"strings"

	"github.com/mama165/sdk-go/database"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// InspectMapper renders a stored message as a row of the badger inspector.
func InspectMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)

	var value structpb.Struct
	if err := proto.Unmarshal(val, &value); err != nil {
		row.Detail = "Error: unmarshal failed"
		return row
	}
	message, err := toDiskMessage(&value)
	if err != nil {
		return row
	}
	row.Type = strings.ToUpper(message.Sender)
	row.Timestamp = message.At.Format("15:04:05")
	row.Detail = message.Content
	if message.Category != "" {
		row.Detail = "[" + message.Category + "] " + message.Content
	}
	return row
}

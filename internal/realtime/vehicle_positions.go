// Package realtime publishes the store's bus positions as a GTFS-Realtime feed so map
// clients and standard GTFS-RT consumers can read them.
package realtime

import (
	"errors"
	"fmt"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/mra-2007/TransitTrack/internal/geo"
	"github.com/mra-2007/TransitTrack/internal/models"
)

const gtfsRealtimeVersion = "2.0"

// ContentTypeProtobuf is served for the binary encoding
const ContentTypeProtobuf = "application/x-protobuf"

// BuildVehiclePositions converts buses into a FULL_DATASET VehiclePositions feed.
// Only active buses with a parseable position are published; the rest are skipped.
func BuildVehiclePositions(buses []models.Bus, now time.Time) *gtfs.FeedMessage {
	feed := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String(gtfsRealtimeVersion),
			Incrementality:      gtfs.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(now.Unix())),
		},
		Entity: make([]*gtfs.FeedEntity, 0, len(buses)),
	}

	for _, bus := range buses {
		if bus.Status != models.BusActive {
			continue
		}

		point, err := geo.ParsePoint(bus.CurrentLatitude, bus.CurrentLongitude)
		if err != nil {
			if !errors.Is(err, geo.ErrNoPosition) {
				zap.S().Warnf("Skipping bus %s in vehicle feed: %v", bus.ID, err)
			}
			continue
		}

		vehicle := &gtfs.VehiclePosition{
			Trip: &gtfs.TripDescriptor{
				RouteId: proto.String(bus.RouteID),
			},
			Vehicle: &gtfs.VehicleDescriptor{
				Id:    proto.String(bus.ID),
				Label: proto.String(bus.BusNumber),
			},
			Position: &gtfs.Position{
				Latitude:  proto.Float32(float32(point.Lat)),
				Longitude: proto.Float32(float32(point.Lng)),
			},
			CurrentStatus: gtfs.VehiclePosition_IN_TRANSIT_TO.Enum(),
		}
		if !bus.LastUpdated.IsZero() {
			vehicle.Timestamp = proto.Uint64(uint64(bus.LastUpdated.Unix()))
		}

		feed.Entity = append(feed.Entity, &gtfs.FeedEntity{
			Id:      proto.String(bus.ID),
			Vehicle: vehicle,
		})
	}

	return feed
}

// Encode serializes the feed as protobuf, or as protojson when asJSON is set.
// Returns the payload and its content type.
func Encode(feed *gtfs.FeedMessage, asJSON bool) ([]byte, string, error) {
	if asJSON {
		data, err := protojson.MarshalOptions{UseProtoNames: true}.Marshal(feed)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode feed as json: %w", err)
		}
		return data, "application/json", nil
	}

	data, err := proto.Marshal(feed)
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode feed: %w", err)
	}
	return data, ContentTypeProtobuf, nil
}

// Decode parses a protobuf VehiclePositions feed
func Decode(data []byte) (*gtfs.FeedMessage, error) {
	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(data, feed); err != nil {
		return nil, fmt.Errorf("failed to parse protobuf: %w", err)
	}
	return feed, nil
}

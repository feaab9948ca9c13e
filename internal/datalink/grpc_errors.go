package datalink

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/datalink-fusion/internal/fusion"
)

// TrackResourceType names tracks in error details.
const TrackResourceType = "datalink.Track"

// ErrInvalidRequest marks a request rejected before it reached the store.
var ErrInvalidRequest = errors.New("invalid request")

// ToStatusError maps fusion errors onto gRPC status codes. Errors that
// already carry a status pass through unchanged.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, fusion.ErrTrackNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, fusion.ErrInvalidTrackID),
		errors.Is(err, fusion.ErrInvalidIdentification):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// trackStatusError is ToStatusError with a ResourceInfo detail naming the
// track attached to NotFound.
func trackStatusError(trackID string, err error) error {
	if !errors.Is(err, fusion.ErrTrackNotFound) {
		return ToStatusError(err)
	}
	st := status.New(codes.NotFound, err.Error())
	detailed, derr := st.WithDetails(&errdetails.ResourceInfo{
		ResourceType: TrackResourceType,
		ResourceName: trackID,
		Description:  "no radar report has been fused for this track",
	})
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}

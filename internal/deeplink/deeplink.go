package deeplink

import (
	"fmt"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

const baseURL = "https://www.google.com/travel/flights?hl=en#flt="

// Compose returns a booking link for the deal. A provider-supplied link is
// used unchanged; otherwise one is synthesized from the route and dates.
// Deals missing the route or departure date stay without a link.
func Compose(deal models.Deal) string {
	if deal.DeepLink != "" {
		return deal.DeepLink
	}
	if deal.OriginIATA == "" || deal.DestinationIATA == "" || deal.DepartureTime == nil {
		return ""
	}

	dep := deal.DepartureTime.Format("2006-01-02")
	if deal.ReturnTime == nil {
		return baseURL + fmt.Sprintf("%s.%s.%s", deal.OriginIATA, deal.DestinationIATA, dep)
	}

	ret := deal.ReturnTime.Format("2006-01-02")
	return baseURL + fmt.Sprintf("%s.%s.%s*%s.%s.%s",
		deal.OriginIATA, deal.DestinationIATA, dep,
		deal.DestinationIATA, deal.OriginIATA, ret)
}

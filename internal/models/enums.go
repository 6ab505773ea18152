package models

// PropertyType is the kind of rentable unit
type PropertyType string

const (
	PropertyTypeRooms     PropertyType = "Rooms"
	PropertyTypeTinyhouse PropertyType = "Tinyhouse"
	PropertyTypeApartment PropertyType = "Apartment"
	PropertyTypeVilla     PropertyType = "Villa"
	PropertyTypeTownhouse PropertyType = "Townhouse"
	PropertyTypeCottage   PropertyType = "Cottage"
)

// PropertyTypes lists every known property type
var PropertyTypes = []PropertyType{
	PropertyTypeRooms,
	PropertyTypeTinyhouse,
	PropertyTypeApartment,
	PropertyTypeVilla,
	PropertyTypeTownhouse,
	PropertyTypeCottage,
}

// Valid reports whether t is a known property type
func (t PropertyType) Valid() bool {
	for _, known := range PropertyTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Amenity is a feature a listing may offer
type Amenity string

const (
	AmenityWasherDryer       Amenity = "WasherDryer"
	AmenityAirConditioning   Amenity = "AirConditioning"
	AmenityDishwasher        Amenity = "Dishwasher"
	AmenityHighSpeedInternet Amenity = "HighSpeedInternet"
	AmenityHardwoodFloors    Amenity = "HardwoodFloors"
	AmenityWalkInClosets     Amenity = "WalkInClosets"
	AmenityMicrowave         Amenity = "Microwave"
	AmenityRefrigerator      Amenity = "Refrigerator"
	AmenityPool              Amenity = "Pool"
	AmenityGym               Amenity = "Gym"
	AmenityParking           Amenity = "Parking"
	AmenityPetsAllowed       Amenity = "PetsAllowed"
	AmenityWiFi              Amenity = "WiFi"
)

var Amenities = []Amenity{
	AmenityWasherDryer,
	AmenityAirConditioning,
	AmenityDishwasher,
	AmenityHighSpeedInternet,
	AmenityHardwoodFloors,
	AmenityWalkInClosets,
	AmenityMicrowave,
	AmenityRefrigerator,
	AmenityPool,
	AmenityGym,
	AmenityParking,
	AmenityPetsAllowed,
	AmenityWiFi,
}

func (a Amenity) Valid() bool {
	for _, known := range Amenities {
		if a == known {
			return true
		}
	}
	return false
}

// Highlight is a marketing highlight shown on the listing page
type Highlight string

const (
	HighlightHighSpeedInternetAccess Highlight = "HighSpeedInternetAccess"
	HighlightWasherDryer             Highlight = "WasherDryer"
	HighlightAirConditioning         Highlight = "AirConditioning"
	HighlightHeating                 Highlight = "Heating"
	HighlightSmokeFree               Highlight = "SmokeFree"
	HighlightCableReady              Highlight = "CableReady"
	HighlightSatelliteTV             Highlight = "SatelliteTV"
	HighlightDoubleVanities          Highlight = "DoubleVanities"
	HighlightTubShower               Highlight = "TubShower"
	HighlightIntercom                Highlight = "Intercom"
	HighlightSprinklerSystem         Highlight = "SprinklerSystem"
	HighlightRecentlyRenovated       Highlight = "RecentlyRenovated"
	HighlightCloseToTransit          Highlight = "CloseToTransit"
	HighlightGreatView               Highlight = "GreatView"
	HighlightQuietNeighborhood       Highlight = "QuietNeighborhood"
)

// ApplicationStatus is the lifecycle state of an application
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "Pending"
	ApplicationStatusApproved ApplicationStatus = "Approved"
	ApplicationStatusRejected ApplicationStatus = "Rejected"
)

// IsTerminal reports whether no further transition is allowed
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

// PaymentStatus is the settlement state of a single lease payment
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "Pending"
	PaymentStatusPaid          PaymentStatus = "Paid"
	PaymentStatusPartiallyPaid PaymentStatus = "PartiallyPaid"
	PaymentStatusOverdue       PaymentStatus = "Overdue"
)

// Role claims issued by the identity provider
const (
	RoleTenant  = "tenant"
	RoleManager = "manager"
)

package smartpark

// Monthly is an account record as the SmartPark API returns it from
// GetMonthlyDetails. The provider owns these records; this service only
// reads them and proposes whole-record replacements.
type Monthly struct {
	MonthlyID        string  `json:"MonthlyID"`
	MonthlyDBID      string  `json:"MonthlyDBID"`
	CompanyID        string  `json:"CompanyID"`
	SubCompanyID     string  `json:"SubCompanyID"`
	FirstName        string  `json:"FirstName"`
	LastName         string  `json:"LastName"`
	IDNum            string  `json:"IDNum"`
	Badge            int     `json:"Badge"`
	ValidFromStr     string  `json:"ValidFromStr"`
	ValidToStr       string  `json:"ValidToStr"`
	MType            int     `json:"MType"`
	CategoryID       int     `json:"CategoryID"`
	RateID           int     `json:"RateID"`
	AccessProfileNum int     `json:"AccessProfileNum"`
	LoopFlag         string  `json:"LoopFlag"`
	PayOnExit        string  `json:"PayOnExit"`
	PassBackFlag     string  `json:"PassBackFlag"`
	WalletBalance    int64   `json:"WalletBalance"`
	CarPlate1        string  `json:"CarPlate1"`
	CarPlate2        string  `json:"CarPlate2"`
	CarPlate3        string  `json:"CarPlate3"`
	CarPlate4        string  `json:"CarPlate4"`
	CarPlate5        string  `json:"CarPlate5"`
	Badge1           int     `json:"Badge1"`
	Badge2           int     `json:"Badge2"`
	Badge3           int     `json:"Badge3"`
	Badge4           int     `json:"Badge4"`
	QR               string  `json:"QR"`
	Mobile           string  `json:"Mobile"`
	AddUnits         int     `json:"AddUnits"`
	MonthlyPrice     float64 `json:"MonthlyPrice"`
}

// Plates collects the non-empty license plates of the record.
func (m *Monthly) Plates() []string {
	plates := []string{}
	for _, p := range []string{m.CarPlate1, m.CarPlate2, m.CarPlate3, m.CarPlate4, m.CarPlate5} {
		if p != "" {
			plates = append(plates, p)
		}
	}
	return plates
}

type Car struct {
	PlateID          string `json:"PlateID"`
	ModelDescription string `json:"ModelDescription"`
	ColorDescription string `json:"ColorDescription"`
	ModelID          int    `json:"ModelID"`
	ColorID          int    `json:"ColorID"`
}

// MonthlyUpdate is the full replacement record UpdateMonthly submits. The
// provider has no partial-patch semantics, so every field must be present
// on every update. WalletBalance is a pointer: a nil balance means the
// update does not touch the wallet at all.
//
// IntsertIfNotFound mirrors a misspelled field the provider still reads;
// both spellings are sent, as the original integration did.
type MonthlyUpdate struct {
	MonthlyID           string  `json:"MonthlyID"`
	MonthlyDBID         string  `json:"MonthlyDBID"`
	CompanyID           string  `json:"CompanyID"`
	SubCompanyID        string  `json:"SubCompanyID"`
	FirstName           string  `json:"FirstName"`
	LastName            string  `json:"LastName"`
	IDNum               string  `json:"IDNum"`
	Badge               int     `json:"Badge"`
	ValidFrom           string  `json:"ValidFrom"`
	ValidTo             string  `json:"ValidTo"`
	MType               int     `json:"MType"`
	CategoryID          int     `json:"CategoryID"`
	RateID              int     `json:"RateID"`
	AccessProfileNum    int     `json:"AccessProfileNum"`
	LoopFlag            bool    `json:"LoopFlag"`
	PayOnExit           bool    `json:"PayOnExit"`
	PassBackFlag        bool    `json:"PassBackFlag"`
	WalletBalance       *int64  `json:"WalletBalance,omitempty"`
	Cars                []Car   `json:"Cars"`
	IntsertIfNotFound   bool    `json:"IntsertIfNotFound"`
	InsertIfNotFound    bool    `json:"InsertIfNotFound"`
	UpdateBalanceMethod string  `json:"UpdateBalanceMethod"`
	Badge1              int     `json:"Badge1"`
	Badge2              int     `json:"Badge2"`
	Badge3              int     `json:"Badge3"`
	Badge4              int     `json:"Badge4"`
	QR                  string  `json:"QR"`
	Mobile              string  `json:"Mobile"`
	AddUnits            int     `json:"AddUnits"`
	MonthlyPrice        float64 `json:"MonthlyPrice"`
}

// UpdateFromDetails builds a full replacement payload from a fetched
// record, keeping every profile field as-is. Callers then overwrite the
// fields they mean to change before submitting.
func UpdateFromDetails(m *Monthly) MonthlyUpdate {
	cars := []Car{}
	for _, plate := range m.Plates() {
		cars = append(cars, Car{PlateID: plate})
	}

	return MonthlyUpdate{
		MonthlyID:           m.MonthlyID,
		MonthlyDBID:         m.MonthlyDBID,
		CompanyID:           m.CompanyID,
		SubCompanyID:        m.SubCompanyID,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		IDNum:               m.IDNum,
		Badge:               m.Badge,
		ValidFrom:           m.ValidFromStr,
		ValidTo:             m.ValidToStr,
		MType:               m.MType,
		CategoryID:          m.CategoryID,
		RateID:              m.RateID,
		AccessProfileNum:    m.AccessProfileNum,
		LoopFlag:            m.LoopFlag == "1",
		PayOnExit:           m.PayOnExit == "1",
		PassBackFlag:        m.PassBackFlag == "1",
		Cars:                cars,
		UpdateBalanceMethod: "Update",
		Badge1:              m.Badge1,
		Badge2:              m.Badge2,
		Badge3:              m.Badge3,
		Badge4:              m.Badge4,
		QR:                  m.QR,
		Mobile:              m.Mobile,
		AddUnits:            m.AddUnits,
		MonthlyPrice:        m.MonthlyPrice,
	}
}

type AccessProfile struct {
	AccessProfileNum int    `json:"AccessProfileNum"`
	Name             string `json:"Name"`
	Description      string `json:"Description"`
}

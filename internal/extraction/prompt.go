package extraction

// FieldInstruction enumerates the exact output fields and their semantics.
// It rides along with the uploaded documents in the seeded chat history.
const FieldInstruction = "generate a json for each page in pdf with fields " +
	"Registration Date(Date in DD/MM/YY format), Receipt Number, Participant Name, " +
	"Event Name(Event Code followed by Event Name (e.g., S06 Tug of War (B)) and " +
	"strictly should be same as event list), Participant Phone Number, " +
	"Participant Email ID, Amount Paid, Volunteer Code(code of volunteer(sign))"

// ExtractionRequest is the message that triggers the structured extraction
// once the history is in place.
const ExtractionRequest = "generate json for each page in pdf"

// DefaultExampleGuidance is a prior model turn that biases the service toward
// the exact field names and newline-delimited JSON shape we parse. It is
// context only, never executed.
const DefaultExampleGuidance = `json
{"Registration Date": "04/12/24", "Receipt Number": "21926", "Participant Name": "RAHUL SHARMA", "Event Name": "G12 Fifa Tournament PS5 (FC25)", "Participant Phone Number": "9819500001", "Participant Email ID": null, "Amount Paid": 150, "Volunteer Code": "CE18"}
{"Registration Date": "04/12/24", "Receipt Number": "21927", "Participant Name": "Karan Joshi", "Event Name": "G09 Clash Royale Online", "Participant Phone Number": "7718900002", "Participant Email ID": null, "Amount Paid": 100, "Volunteer Code": "CE11"}
{"Registration Date": "06/12/24", "Receipt Number": "21947", "Participant Name": "Siddhi Patil", "Event Name": "TW07 Web application development using Python", "Participant Phone Number": "9326400003", "Participant Email ID": "siddhi.patil@example.com", "Amount Paid": 200, "Volunteer Code": "CE13"}
`

package conversation

import (
	"fmt"
	"strings"
	"time"
)

// Reply wording for every step of the booking dialogue. The phrasing is what
// the TTS layer speaks verbatim, so keep sentences short and pronounceable.

const (
	msgTransferRequested = "Of course! Let me transfer you to one of our staff members who can assist you further. Please hold on."
	msgTechnicalTrouble  = "I'm sorry, I'm experiencing technical difficulties. Please hold while I transfer you to our staff."

	msgNameRetry    = "I didn't catch that. Could you please tell me your name again?"
	msgNameTransfer = "I'm having trouble understanding your name. Let me transfer you to our staff for assistance."

	msgNoDepartments    = "I'm sorry, but I'm having trouble accessing our department information. Let me transfer you to our staff."
	msgDepartmentGiveUp = "I'm having trouble understanding which department you'd like. Let me transfer you to our staff who can help you better."
	msgDoctorGiveUp     = "I'm having trouble understanding which doctor you'd prefer. Let me transfer you to our staff."
	msgDateGiveUp       = "I'm having trouble understanding the date you'd like. Let me transfer you to our staff who can help schedule your appointment."
	msgDateRetry        = "I didn't catch the date. Could you please say the date again? For example, 'January 15th' or 'next Monday'."
	msgDatePast         = "I'm sorry, but that date has already passed. Could you please choose a future date?"
	msgDateTooFar       = "I can only schedule appointments up to 3 months in advance. Could you please choose an earlier date?"
	msgTimeGiveUp       = "I'm having trouble understanding which time you'd prefer. Let me transfer you to our staff."
	msgBookingFailed    = "I'm sorry, there was an error booking your appointment. Let me transfer you to our staff who can help you complete the booking."
	msgConfirmRetry     = "I didn't catch that. Should I go ahead and book this appointment? Please say 'yes' to confirm or 'no' if you'd like to make changes."
	msgConfirmGiveUp    = "I'm having trouble confirming your appointment. Let me transfer you to our staff to finish the booking."
	msgChangeDate       = "No problem! Would you like to choose a different date or time, or would you prefer to speak with our staff?"
	msgFarewell         = "Perfect! Thank you for calling, and we look forward to seeing you for your appointment. Have a great day!"
	msgFurtherRequests  = "I'd be happy to help with anything else, but for additional requests, let me transfer you to our staff who can assist you further."
)

func msgGreeting(clinicName string) string {
	if clinicName == "" {
		clinicName = "our clinic"
	}
	return fmt.Sprintf("Hello! Thank you for calling %s. I'm your AI assistant, and I'm here to help you schedule an appointment. May I please have your name?", clinicName)
}

func msgDepartmentList(patientName string, departments []string) string {
	return fmt.Sprintf("Nice to meet you, %s! We have the following departments available: %s. Which department would you like to schedule an appointment with?",
		patientName, strings.Join(departments, ", "))
}

func msgDepartmentRetry(departments []string) string {
	return fmt.Sprintf("I didn't catch which department you'd like. Our available departments are: %s. Which one would you prefer?",
		strings.Join(departments, ", "))
}

func msgNoDoctorsInDepartment(department string) string {
	return fmt.Sprintf("I'm sorry, but we don't have any doctors available in %s at the moment. Would you like to try a different department, or shall I transfer you to our staff?", department)
}

func msgSingleDoctor(department, doctor string) string {
	return fmt.Sprintf("Perfect! For %s, we have Dr. %s available. What date would you like to schedule your appointment? Please say the date like 'January 15th' or 'next Monday'.", department, doctor)
}

func msgDoctorList(department string, doctors []string) string {
	return fmt.Sprintf("Great choice! For %s, we have these doctors available: %s. Which doctor would you prefer?",
		department, "Dr. "+strings.Join(doctors, ", Dr. "))
}

func msgDoctorRetry(doctors []string) string {
	return fmt.Sprintf("I didn't catch which doctor you'd like. Our available doctors are: %s. Which one would you prefer?",
		"Dr. "+strings.Join(doctors, ", Dr. "))
}

func msgDoctorChosen(doctor string) string {
	return fmt.Sprintf("Excellent! I'll schedule you with Dr. %s. What date would you like for your appointment? Please say the date like 'January 15th' or 'next Monday'.", doctor)
}

func msgNoSlots(doctor string, date time.Time) string {
	return fmt.Sprintf("I'm sorry, but Dr. %s doesn't have any available appointments on %s. Would you like to try a different date?",
		doctor, speakDate(date))
}

func msgSlotList(doctor string, date time.Time, slots []string) string {
	shown := slots
	more := ""
	if len(slots) > 5 {
		shown = slots[:5]
		more = fmt.Sprintf(" and %d more times", len(slots)-5)
	}
	return fmt.Sprintf("Perfect! Dr. %s has these available times on %s: %s%s. Which time works best for you?",
		doctor, speakDate(date), strings.Join(shown, ", "), more)
}

func msgTimeRetry(slots []string) string {
	shown := slots
	if len(shown) > 5 {
		shown = shown[:5]
	}
	return fmt.Sprintf("I didn't catch which time you'd like. Available times include: %s. Which time would you prefer?",
		strings.Join(shown, ", "))
}

func msgConfirm(patient, doctor, department string, date time.Time, slot string) string {
	return fmt.Sprintf("Perfect! Let me confirm your appointment details: %s with Dr. %s in %s on %s at %s. Should I go ahead and book this appointment for you?",
		patient, doctor, department, speakDate(date), slot)
}

func msgBooked(patient, doctor string, date time.Time, slot, appointmentID string) string {
	return fmt.Sprintf("Excellent! Your appointment has been successfully booked. Here are your details: %s with Dr. %s on %s at %s. Your appointment ID is %s. You'll receive a confirmation call or message shortly. Is there anything else I can help you with today?",
		patient, doctor, speakDate(date), slot, appointmentID)
}

// speakDate renders a date the way the TTS layer should read it aloud.
func speakDate(d time.Time) string {
	return d.Format("Monday, January 2, 2006")
}

package notifier

import "html/template"

const (
	memberSubject = "Welcome to CSI NMAMIT Executive Membership!"
	adminSubject  = "New Executive Member Registration - CSI NMAMIT"
)

var memberTmpl = template.Must(template.New("member").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Executive Membership Confirmed!</h1>
  <p>Hello {{.Name}},</p>
  <p>Your payment was received and your CSI NMAMIT Executive Membership is now active.</p>
  <h3>Your Membership Details:</h3>
  <ul>
    <li><strong>Plan:</strong> {{.MembershipType}}</li>
    <li><strong>USN:</strong> {{.Usn}}</li>
    <li><strong>Valid until:</strong> {{.EndDate.Format "January 2, 2006"}}</li>
    <li><strong>Amount paid:</strong> {{.Currency}} {{.TotalPrice}} (includes {{.Currency}} {{.PlatformFee}} platform fee)</li>
    <li><strong>Payment ID:</strong> {{.PaymentID}}</li>
  </ul>
  <p>Welcome aboard,<br/>CSI NMAMIT</p>
</div>`))

var adminTmpl = template.Must(template.New("admin").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>New Executive Member</h1>
  <h3>Member Details:</h3>
  <ul>
    <li><strong>Name:</strong> {{.Name}}</li>
    <li><strong>Email:</strong> {{.Email}}</li>
    <li><strong>USN:</strong> {{.Usn}}</li>
    <li><strong>Plan:</strong> {{.MembershipType}}</li>
    <li><strong>Amount:</strong> {{.Currency}} {{.TotalPrice}}</li>
    <li><strong>Order / Payment:</strong> {{.OrderID}} / {{.PaymentID}}</li>
    <li><strong>Source:</strong> {{.Source}}</li>
  </ul>
</div>`))

package handlers

const adminPage = `<!DOCTYPE html>
<html>
<head><title>Generate certificates</title></head>
<body>
  <h1>Generate certificates</h1>
  <form method="POST" action="/admin" enctype="multipart/form-data">
    <label>Template image <input type="file" name="template" accept="image/*" required></label><br>
    <label>Roster CSV (Name, Event, Date) <input type="file" name="csv_data" accept=".csv,text/csv" required></label><br>
    <button type="submit">Generate</button>
  </form>
</body>
</html>
`

const certificateFormPage = `<!DOCTYPE html>
<html>
<head><title>Verify a certificate</title></head>
<body>
  <h1>Verify a certificate</h1>
  <form method="GET" action="/verify_certificate">
    <label>Certificate ID <input type="text" name="cert_id" required></label>
    <button type="submit">Verify</button>
  </form>
</body>
</html>
`
